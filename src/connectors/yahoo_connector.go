package connectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"papertrader/src/model"
)

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketOpen          float64 `json:"regularMarketOpen"`
			RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
			RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
			RegularMarketVolume        int64   `json:"regularMarketVolume"`
			RegularMarketTime          int64   `json:"regularMarketTime"`
			RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooConnector pulls quotes and chart history from the Yahoo Finance API.
type YahooConnector struct {
	apiKey string
	http   *resty.Client
}

func NewYahooConnector(apiKey, baseURL string, timeout time.Duration) *YahooConnector {
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff)

	return &YahooConnector{apiKey: apiKey, http: httpClient}
}

func (c *YahooConnector) Name() string {
	return model.MarketDataSourceYahoo
}

func (c *YahooConnector) FetchLatest(ctx context.Context, symbolCode string) (*model.MarketData, error) {
	var payload yahooQuoteResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-RapidAPI-Key", c.apiKey).
		SetQueryParams(map[string]string{
			"symbols": symbolCode,
			"region":  "US",
		}).
		SetResult(&payload).
		Get("/market/v2/get-quotes")
	if err != nil {
		return nil, fmt.Errorf("yahoo quote request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo quote request: status %d", resp.StatusCode())
	}
	if payload.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote request: %s", payload.QuoteResponse.Error.Description)
	}
	if len(payload.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote request: no result for %s", symbolCode)
	}

	q := payload.QuoteResponse.Result[0]
	ts := time.Unix(q.RegularMarketTime, 0).UTC()
	if q.RegularMarketTime == 0 {
		ts = time.Now().UTC()
	}

	return &model.MarketData{
		Timestamp: ts,
		Open:      q.RegularMarketOpen,
		High:      q.RegularMarketDayHigh,
		Low:       q.RegularMarketDayLow,
		Close:     q.RegularMarketPrice,
		Volume:    q.RegularMarketVolume,
		Source:    c.Name(),
	}, nil
}

func (c *YahooConnector) FetchHistory(ctx context.Context, symbolCode, interval, rng string) ([]model.MarketData, error) {
	var payload yahooChartResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-RapidAPI-Key", c.apiKey).
		SetQueryParams(map[string]string{
			"symbol":   symbolCode,
			"interval": interval,
			"range":    rng,
		}).
		SetResult(&payload).
		Get("/stock/v3/get-chart")
	if err != nil {
		return nil, fmt.Errorf("yahoo chart request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo chart request: status %d", resp.StatusCode())
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart request: %s", payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart request: empty chart for %s", symbolCode)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]model.MarketData, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}

		bar := model.MarketData{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     quote.Close[i],
			Source:    c.Name(),
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
