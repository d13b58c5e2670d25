// Package marketdata orchestrates the price-series store and the external
// quote providers: reads come from the store, misses trigger a provider
// fetch that is written back before being returned.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
	"papertrader/src/repository"
)

var ErrSymbolNotFound = errors.New("symbol not found")

// QuoteSource is the provider side of the service, satisfied by
// connectors.FallbackQuoteSource.
type QuoteSource interface {
	FetchLatest(ctx context.Context, symbolCode string) (*model.MarketData, error)
	FetchHistory(ctx context.Context, symbolCode, interval, rng string) ([]model.MarketData, error)
}

// Service exposes the price series to the simulation core and the HTTP layer.
type Service struct {
	symbols *repository.SymbolRepository
	bars    *repository.MarketDataRepository
	quotes  QuoteSource
}

func NewService(symbols *repository.SymbolRepository, bars *repository.MarketDataRepository, quotes QuoteSource) *Service {
	return &Service{symbols: symbols, bars: bars, quotes: quotes}
}

// Latest returns the newest stored bar for a symbol, (nil, nil) when the
// series is empty.
func (s *Service) Latest(ctx context.Context, symbolID uint) (*model.MarketData, error) {
	return s.bars.Latest(ctx, symbolID)
}

// Recent returns up to limit stored bars, most recent first.
func (s *Service) Recent(ctx context.Context, symbolID uint, limit int) ([]model.MarketData, error) {
	return s.bars.Recent(ctx, symbolID, limit)
}

// Range returns stored bars in [start, end) in chronological order.
func (s *Service) Range(ctx context.Context, symbolID uint, start, end time.Time) ([]model.MarketData, error) {
	return s.bars.Range(ctx, symbolID, start, end)
}

// LatestByCode resolves a symbol code and returns its newest stored bar.
func (s *Service) LatestByCode(ctx context.Context, symbolCode string) (*model.MarketData, error) {
	symbol, err := s.symbols.GetByCode(ctx, symbolCode)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbolCode)
	}
	return s.bars.Latest(ctx, symbol.ID)
}

// RecentByCode resolves a symbol code and returns its stored bars, most
// recent first.
func (s *Service) RecentByCode(ctx context.Context, symbolCode string, limit int) ([]model.MarketData, error) {
	symbol, err := s.symbols.GetByCode(ctx, symbolCode)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbolCode)
	}
	return s.bars.Recent(ctx, symbol.ID, limit)
}

// FetchAndSaveLatest pulls the current quote for a symbol code through the
// provider chain and appends it to the series.
func (s *Service) FetchAndSaveLatest(ctx context.Context, symbolCode string) (*model.MarketData, error) {
	symbol, err := s.symbols.GetByCode(ctx, symbolCode)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbolCode)
	}

	bar, err := s.quotes.FetchLatest(ctx, symbolCode)
	if err != nil {
		return nil, err
	}

	bar.SymbolID = symbol.ID
	if err := s.bars.Save(ctx, bar); err != nil {
		return nil, err
	}

	return bar, nil
}

// FetchAndSaveHistory backfills historical bars for a symbol code.
func (s *Service) FetchAndSaveHistory(ctx context.Context, symbolCode, interval, rng string) ([]model.MarketData, error) {
	symbol, err := s.symbols.GetByCode(ctx, symbolCode)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbolCode)
	}

	bars, err := s.quotes.FetchHistory(ctx, symbolCode, interval, rng)
	if err != nil {
		return nil, err
	}

	for i := range bars {
		bars[i].SymbolID = symbol.ID
	}
	if err := s.bars.SaveAll(ctx, bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// RefreshAll pulls a fresh quote for every active symbol. Per-symbol
// failures are logged and skipped so one dead ticker cannot stall the rest.
func (s *Service) RefreshAll(ctx context.Context) {
	symbols, err := s.symbols.FindActive(ctx)
	if err != nil {
		logger.WithError(err).Error("Market data refresh could not list symbols")
		return
	}

	for _, symbol := range symbols {
		if _, err := s.FetchAndSaveLatest(ctx, symbol.Code); err != nil {
			logger.WithFields(map[string]interface{}{
				"symbol": symbol.Code,
			}).WithError(err).Warn("Market data refresh failed for symbol")
			continue
		}

		logger.WithField("symbol", symbol.Code).Debug("Market data refreshed")
	}
}
