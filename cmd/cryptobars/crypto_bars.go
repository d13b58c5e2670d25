// Package cryptobars backfills OHLCV bars for crypto symbols from Binance
// klines into the market_data series.
package cryptobars

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/model"
	"papertrader/src/repository"
)

const (
	Duration1m = "1m"
	Duration1h = "1h"
)

type CryptoBars struct {
	Log      *logger.Entry
	DB       *gorm.DB
	Config   *Config
	exchange goex.API
}

func (c *CryptoBars) Start() error {
	c.Config = GetConfig()
	c.exchange = c.newBinanceInstance()

	return c.fetchAndSave(context.Background())
}

func (*CryptoBars) newBinanceInstance() *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

func (c *CryptoBars) fetchAndSave(ctx context.Context) error {
	symbols := repository.NewSymbolRepositoryWithDB(c.DB)
	bars := repository.NewMarketDataRepositoryWithDB(c.DB)

	code := c.Config.Symbol + "_" + c.Config.Quote
	symbol, err := symbols.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if symbol == nil {
		symbol = &model.Symbol{
			Code:     code,
			Name:     c.Config.Symbol + "/" + c.Config.Quote,
			Exchange: "binance",
			Type:     model.SymbolTypeCrypto,
			Active:   true,
		}
		if err := symbols.Save(ctx, symbol); err != nil {
			return err
		}
		c.Log.WithField("code", code).Info("Crypto symbol registered")
	}

	klines, err := c.fetchKlines()
	if err != nil {
		return err
	}

	rows := make([]model.MarketData, 0, len(klines))
	for i := range klines {
		k := klines[i]
		rows = append(rows, model.MarketData{
			SymbolID:  symbol.ID,
			Timestamp: time.Unix(k.Timestamp, 0).UTC(),
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    int64(k.Vol),
			Source:    model.MarketDataSourceBinance,
		})
	}

	if err := bars.SaveAll(ctx, rows); err != nil {
		return err
	}

	c.Log.WithFields(logger.Fields{
		"symbol": code,
		"bars":   len(rows),
	}).Info("Crypto bars saved")

	return nil
}

func (c *CryptoBars) fetchKlines() ([]goex.Kline, error) {
	pair := goex.NewCurrencyPair(goex.Currency{Symbol: c.Config.Symbol}, goex.Currency{Symbol: c.Config.Quote})

	const millis = 1000
	klines, err := c.exchange.GetKlineRecords(
		pair,
		c.parseDurationToGoex(),
		c.Config.Limit,
		goex.OptionalParameter{}.
			Optional("startTime", c.Config.StartDt.Unix()*millis).
			Optional("endTime", c.Config.EndDt.Unix()*millis),
	)
	if err != nil {
		return nil, err
	}

	return klines, nil
}

func (c *CryptoBars) parseDurationToGoex() goex.KlinePeriod {
	switch c.Config.DurationStr {
	case Duration1m:
		return goex.KLINE_PERIOD_1MIN
	case Duration1h:
		return goex.KLINE_PERIOD_1H
	default:
		panic(fmt.Sprintf("invalid DURATION env var: %s", c.Config.DurationStr))
	}
}
