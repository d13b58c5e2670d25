package connectors

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"papertrader/src/model"
)

type alphaVantageQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	ErrMessage  string            `json:"Error Message"`
}

// AlphaVantageConnector is the secondary quote source, used when Yahoo is
// down or rate-limited.
type AlphaVantageConnector struct {
	apiKey string
	http   *resty.Client
}

func NewAlphaVantageConnector(apiKey, baseURL string, timeout time.Duration) *AlphaVantageConnector {
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff)

	return &AlphaVantageConnector{apiKey: apiKey, http: httpClient}
}

func (c *AlphaVantageConnector) Name() string {
	return model.MarketDataSourceAlphaVantage
}

func (c *AlphaVantageConnector) FetchLatest(ctx context.Context, symbolCode string) (*model.MarketData, error) {
	var payload alphaVantageQuoteResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbolCode,
			"apikey":   c.apiKey,
		}).
		SetResult(&payload).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage quote request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alphavantage quote request: status %d", resp.StatusCode())
	}
	if payload.ErrMessage != "" {
		return nil, fmt.Errorf("alphavantage quote request: %s", payload.ErrMessage)
	}
	if payload.Note != "" {
		// Rate-limit notes come back as 200s with an explanatory body.
		return nil, fmt.Errorf("alphavantage quote request: %s", payload.Note)
	}
	if len(payload.GlobalQuote) == 0 {
		return nil, fmt.Errorf("alphavantage quote request: no quote for %s", symbolCode)
	}

	q := payload.GlobalQuote

	closePrice, err := avFloat(q, "05. price")
	if err != nil {
		return nil, err
	}
	open, _ := avFloat(q, "02. open")
	high, _ := avFloat(q, "03. high")
	low, _ := avFloat(q, "04. low")
	volume, _ := avInt(q, "06. volume")

	ts := time.Now().UTC()
	if day, ok := q["07. latest trading day"]; ok {
		if parsed, perr := time.Parse("2006-01-02", day); perr == nil {
			ts = parsed.UTC()
		}
	}

	return &model.MarketData{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		Source:    c.Name(),
	}, nil
}

func (c *AlphaVantageConnector) FetchHistory(ctx context.Context, symbolCode, interval, _ string) ([]model.MarketData, error) {
	var payload map[string]interface{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "TIME_SERIES_INTRADAY",
			"symbol":   symbolCode,
			"interval": interval,
			"apikey":   c.apiKey,
		}).
		SetResult(&payload).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage history request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alphavantage history request: status %d", resp.StatusCode())
	}
	if msg, ok := payload["Error Message"].(string); ok && msg != "" {
		return nil, fmt.Errorf("alphavantage history request: %s", msg)
	}

	seriesKey := fmt.Sprintf("Time Series (%s)", interval)
	series, ok := payload[seriesKey].(map[string]interface{})
	if !ok || len(series) == 0 {
		return nil, fmt.Errorf("alphavantage history request: no series %q for %s", seriesKey, symbolCode)
	}

	bars := make([]model.MarketData, 0, len(series))
	for stamp, raw := range series {
		point, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		ts, perr := time.Parse("2006-01-02 15:04:05", stamp)
		if perr != nil {
			continue
		}

		bars = append(bars, model.MarketData{
			Timestamp: ts.UTC(),
			Open:      avPointFloat(point, "1. open"),
			High:      avPointFloat(point, "2. high"),
			Low:       avPointFloat(point, "3. low"),
			Close:     avPointFloat(point, "4. close"),
			Volume:    int64(avPointFloat(point, "5. volume")),
			Source:    c.Name(),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	return bars, nil
}

func avFloat(quote map[string]string, key string) (float64, error) {
	raw, ok := quote[key]
	if !ok {
		return 0, fmt.Errorf("alphavantage quote missing field %q", key)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("alphavantage quote field %q: %w", key, err)
	}
	return value, nil
}

func avInt(quote map[string]string, key string) (int64, error) {
	raw, ok := quote[key]
	if !ok {
		return 0, fmt.Errorf("alphavantage quote missing field %q", key)
	}
	return strconv.ParseInt(raw, 10, 64)
}

func avPointFloat(point map[string]interface{}, key string) float64 {
	raw, ok := point[key].(string)
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
