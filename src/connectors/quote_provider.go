// Package connectors holds the external market-data clients. Providers are
// interchangeable behind QuoteProvider; FallbackQuoteSource walks an ordered
// list so a dead provider degrades service instead of breaking it.
package connectors

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
)

// ErrAllProvidersFailed is the terminal value when every configured provider
// failed for a fetch. Callers inspect it, they do not recover from panics.
var ErrAllProvidersFailed = errors.New("all quote providers failed")

// QuoteProvider fetches bars for a symbol code from one external source.
// Implementations return an error on any transport or payload problem so the
// fallback chain can move on to the next provider.
type QuoteProvider interface {
	// Name identifies the provider in logs and bar source tags.
	Name() string

	// FetchLatest returns the most recent bar for the symbol code. The
	// returned bar carries no SymbolID; the caller resolves that.
	FetchLatest(ctx context.Context, symbolCode string) (*model.MarketData, error)

	// FetchHistory returns historical bars for the code over the given
	// interval ("1d", "5min", ...) and range ("1mo", "3mo", ...).
	FetchHistory(ctx context.Context, symbolCode, interval, rng string) ([]model.MarketData, error)
}

// FallbackQuoteSource tries each provider in order and returns the first
// success.
type FallbackQuoteSource struct {
	providers []QuoteProvider
}

func NewFallbackQuoteSource(providers ...QuoteProvider) *FallbackQuoteSource {
	return &FallbackQuoteSource{providers: providers}
}

// FetchLatest walks the provider list for a latest quote.
func (s *FallbackQuoteSource) FetchLatest(ctx context.Context, symbolCode string) (*model.MarketData, error) {
	for _, provider := range s.providers {
		bar, err := provider.FetchLatest(ctx, symbolCode)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"provider": provider.Name(),
				"symbol":   symbolCode,
			}).WithError(err).Warn("Quote provider failed, trying next")
			continue
		}
		return bar, nil
	}

	return nil, fmt.Errorf("latest quote for %s: %w", symbolCode, ErrAllProvidersFailed)
}

// FetchHistory walks the provider list for historical bars.
func (s *FallbackQuoteSource) FetchHistory(ctx context.Context, symbolCode, interval, rng string) ([]model.MarketData, error) {
	for _, provider := range s.providers {
		bars, err := provider.FetchHistory(ctx, symbolCode, interval, rng)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"provider": provider.Name(),
				"symbol":   symbolCode,
			}).WithError(err).Warn("History provider failed, trying next")
			continue
		}
		return bars, nil
	}

	return nil, fmt.Errorf("history for %s: %w", symbolCode, ErrAllProvidersFailed)
}
