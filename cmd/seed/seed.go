// Package seed provisions the schema, the default strategy catalog, and a
// starter set of tracked symbols.
package seed

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
	"papertrader/src/repository"
)

type Seeder struct {
	Log *logger.Entry
	DB  *gorm.DB
}

func defaultSymbols() []model.Symbol {
	return []model.Symbol{
		{Code: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Type: model.SymbolTypeEquity, Sector: "Technology", Active: true},
		{Code: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ", Type: model.SymbolTypeEquity, Sector: "Technology", Active: true},
		{Code: "GOOGL", Name: "Alphabet Inc.", Exchange: "NASDAQ", Type: model.SymbolTypeEquity, Sector: "Technology", Active: true},
		{Code: "AMZN", Name: "Amazon.com Inc.", Exchange: "NASDAQ", Type: model.SymbolTypeEquity, Sector: "Consumer Cyclical", Active: true},
		{Code: "SPY", Name: "SPDR S&P 500 ETF Trust", Exchange: "NYSEARCA", Type: model.SymbolTypeIndex, Active: true},
		{Code: "BTC_USDT", Name: "BTC/USDT", Exchange: "binance", Type: model.SymbolTypeCrypto, Active: true},
	}
}

func (s *Seeder) Start() error {
	ctx := context.Background()

	if err := database.Migrate(s.DB); err != nil {
		s.Log.WithError(err).Error("Schema migration failed")
		return err
	}
	s.Log.Info("Schema migrated")

	strategies := repository.NewStrategyRepositoryWithDB(s.DB)
	if err := strategies.SeedDefaults(ctx); err != nil {
		return err
	}
	s.Log.Info("Default strategies seeded")

	symbols := repository.NewSymbolRepositoryWithDB(s.DB)
	for _, symbol := range defaultSymbols() {
		existing, err := symbols.GetByCode(ctx, symbol.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		symbol := symbol
		if err := symbols.Save(ctx, &symbol); err != nil {
			return err
		}
		s.Log.WithField("code", symbol.Code).Info("Symbol seeded")
	}

	return nil
}
