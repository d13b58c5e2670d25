package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestYahooFetchLatestParsesQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market/v2/get-quotes" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		if got := r.URL.Query().Get("symbols"); got != "ACME" {
			t.Fatalf("unexpected symbols param %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{
			"symbol":"ACME",
			"regularMarketPrice":123.45,
			"regularMarketOpen":120.0,
			"regularMarketDayHigh":125.0,
			"regularMarketDayLow":119.5,
			"regularMarketVolume":100000,
			"regularMarketTime":1700000000
		}],"error":null}}`))
	}))
	defer server.Close()

	connector := NewYahooConnector("test-key", server.URL, 5*time.Second)

	bar, err := connector.FetchLatest(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bar.Close != 123.45 || bar.Open != 120.0 || bar.Volume != 100000 {
		t.Fatalf("unexpected bar %+v", bar)
	}
	if !bar.Timestamp.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("unexpected timestamp %v", bar.Timestamp)
	}
	if bar.Source != "yahoo" {
		t.Fatalf("unexpected source %q", bar.Source)
	}
}

func TestYahooFetchLatestEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	connector := NewYahooConnector("test-key", server.URL, 5*time.Second)

	if _, err := connector.FetchLatest(context.Background(), "NOPE"); err == nil {
		t.Fatalf("expected error for empty result")
	}
}

func TestYahooFetchHistoryParsesChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/v3/get-chart" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1700000000,1700086400],
			"indicators":{"quote":[{
				"open":[10,11],"high":[12,13],"low":[9,10],
				"close":[11,12],"volume":[500,600]
			}]}
		}],"error":null}}`))
	}))
	defer server.Close()

	connector := NewYahooConnector("test-key", server.URL, 5*time.Second)

	bars, err := connector.FetchHistory(context.Background(), "ACME", "1d", "1mo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close != 11 || bars[1].Close != 12 {
		t.Fatalf("unexpected closes %+v", bars)
	}
	if bars[1].Volume != 600 {
		t.Fatalf("unexpected volume %d", bars[1].Volume)
	}
}

func TestAlphaVantageFetchLatestParsesGlobalQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "GLOBAL_QUOTE" {
			t.Fatalf("unexpected function %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Global Quote":{
			"01. symbol":"ACME",
			"02. open":"120.0",
			"03. high":"125.0",
			"04. low":"119.5",
			"05. price":"123.45",
			"06. volume":"100000",
			"07. latest trading day":"2025-08-29"
		}}`))
	}))
	defer server.Close()

	connector := NewAlphaVantageConnector("av-key", server.URL, 5*time.Second)

	bar, err := connector.FetchLatest(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bar.Close != 123.45 || bar.Volume != 100000 {
		t.Fatalf("unexpected bar %+v", bar)
	}
	if bar.Source != "alphavantage" {
		t.Fatalf("unexpected source %q", bar.Source)
	}
}

func TestAlphaVantageRateLimitNoteIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer server.Close()

	connector := NewAlphaVantageConnector("av-key", server.URL, 5*time.Second)

	if _, err := connector.FetchLatest(context.Background(), "ACME"); err == nil {
		t.Fatalf("expected rate-limit note to surface as error")
	}
}
