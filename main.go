package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
	"papertrader/src/database"
	"papertrader/src/executors"
	"papertrader/src/marketdata"
	"papertrader/src/repository"
	"papertrader/src/server"
	"papertrader/src/simulation"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	cfg := connectors.GetConfig()
	quotes := connectors.NewFallbackQuoteSource(
		connectors.NewYahooConnector(cfg.YahooAPIKey, cfg.YahooBaseURL, cfg.QuoteTimeout),
		connectors.NewAlphaVantageConnector(cfg.AlphaVantageAPIKey, cfg.AlphaVantageBaseURL, cfg.QuoteTimeout),
	)

	symbols := repository.NewSymbolRepository()
	bars := repository.NewMarketDataRepository()
	simulations := repository.NewSimulationRepository()
	trades := repository.NewTradeRepository()
	strategies := repository.NewStrategyRepository()
	users := repository.NewUserRepository()

	market := marketdata.NewService(symbols, bars, quotes)
	lifecycle := simulation.NewService(simulations, trades)
	processor := simulation.NewProcessor(database.MainDB, simulations, trades, symbols, strategies, market)
	processor.SetLookback(executors.GetConfig().HistoryLookback)
	sweeper := executors.NewSweeper(processor, market)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sweeper.StartLoop(ctx); err != nil {
			logger.WithError(err).Error("Sweep loop exited")
		}
	}()

	server.StartServer(server.GetConfig().Port, server.Deps{
		Simulations: lifecycle,
		Processor:   processor,
		Market:      market,
		Users:       users,
		Sweeper:     sweeper,
	})
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
