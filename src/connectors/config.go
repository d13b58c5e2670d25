package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 4 * time.Second
)

type Config struct {
	YahooBaseURL        string        `envconfig:"YAHOO_BASE_URL" default:"https://yh-finance.p.rapidapi.com"`
	YahooAPIKey         string        `envconfig:"YAHOO_API_KEY"`
	AlphaVantageBaseURL string        `envconfig:"ALPHAVANTAGE_BASE_URL" default:"https://www.alphavantage.co"`
	AlphaVantageAPIKey  string        `envconfig:"ALPHAVANTAGE_API_KEY"`
	QuoteTimeout        time.Duration `envconfig:"QUOTE_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
