package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
	"papertrader/src/marketdata"
	"papertrader/src/model"
)

type marketService interface {
	LatestByCode(ctx context.Context, symbolCode string) (*model.MarketData, error)
	RecentByCode(ctx context.Context, symbolCode string, limit int) ([]model.MarketData, error)
	FetchAndSaveLatest(ctx context.Context, symbolCode string) (*model.MarketData, error)
	FetchAndSaveHistory(ctx context.Context, symbolCode, interval, rng string) ([]model.MarketData, error)
}

func writeMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketdata.ErrSymbolNotFound):
		http.Error(w, "symbol not found", http.StatusNotFound)
	case errors.Is(err, connectors.ErrAllProvidersFailed):
		http.Error(w, "all quote providers failed", http.StatusBadGateway)
	default:
		logger.WithError(err).Error("market data request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func LatestQuoteHandler(svc marketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		bar, err := svc.LatestByCode(r.Context(), code)
		if err != nil {
			writeMarketError(w, err)
			return
		}
		if bar == nil {
			http.Error(w, "no market data for symbol", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, bar)
	}
}

func QuoteHistoryHandler(svc marketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		limit := 100
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		bars, err := svc.RecentByCode(r.Context(), code, limit)
		if err != nil {
			writeMarketError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bars)
	}
}

// RefreshQuoteHandler pulls a fresh quote through the provider chain and
// stores it. With interval/range query params it backfills history instead.
func RefreshQuoteHandler(svc marketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		interval := r.URL.Query().Get("interval")
		rng := r.URL.Query().Get("range")

		if interval != "" || rng != "" {
			if interval == "" {
				interval = "5m"
			}
			if rng == "" {
				rng = "1d"
			}

			bars, err := svc.FetchAndSaveHistory(r.Context(), code, interval, rng)
			if err != nil {
				writeMarketError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, bars)
			return
		}

		bar, err := svc.FetchAndSaveLatest(r.Context(), code)
		if err != nil {
			writeMarketError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bar)
	}
}
