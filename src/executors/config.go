package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m"`
	HistoryLookback int           `envconfig:"HISTORY_LOOKBACK" default:"100"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
