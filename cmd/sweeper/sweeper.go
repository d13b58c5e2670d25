// Package sweeper runs the scheduled simulation sweep without the HTTP
// surface, for deployments that split scheduling from serving.
package sweeper

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/connectors"
	"papertrader/src/executors"
	"papertrader/src/marketdata"
	"papertrader/src/repository"
	"papertrader/src/simulation"
)

type Sweep struct {
	Log *logger.Entry
	DB  *gorm.DB
}

func (s *Sweep) Start() error {
	cfg := connectors.GetConfig()
	quotes := connectors.NewFallbackQuoteSource(
		connectors.NewYahooConnector(cfg.YahooAPIKey, cfg.YahooBaseURL, cfg.QuoteTimeout),
		connectors.NewAlphaVantageConnector(cfg.AlphaVantageAPIKey, cfg.AlphaVantageBaseURL, cfg.QuoteTimeout),
	)

	symbols := repository.NewSymbolRepositoryWithDB(s.DB)
	bars := repository.NewMarketDataRepositoryWithDB(s.DB)
	market := marketdata.NewService(symbols, bars, quotes)

	processor := simulation.NewProcessor(
		s.DB,
		repository.NewSimulationRepositoryWithDB(s.DB),
		repository.NewTradeRepositoryWithDB(s.DB),
		symbols,
		repository.NewStrategyRepositoryWithDB(s.DB),
		market,
	)
	processor.SetLookback(executors.GetConfig().HistoryLookback)

	s.Log.Info("Starting sweep loop")
	return executors.NewSweeper(processor, market).StartLoop(context.Background())
}
