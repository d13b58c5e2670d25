package model

import "time"

// Canonical catalog strategy names. The evaluator resolves these into typed
// variants once per processing run; anything else evaluates to HOLD.
const (
	StrategyMovingAverageCross = "Moving Average Crossover"
	StrategyMACDCross          = "MACD Crossover"
	StrategyRSI                = "RSI Overbought/Oversold"
	StrategyBollingerBands     = "Bollinger Bands"
)

// StrategyParams is the typed parameter set attached to a catalog strategy.
// A simulation may carry its own overlay of the same shape.
type StrategyParams struct {
	FastPeriod    int     `json:"fast_period"`
	SlowPeriod    int     `json:"slow_period"`
	SignalPeriod  int     `json:"signal_period"`
	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`
	StopLoss      float64 `json:"stop_loss"`
}

// Strategy is a named algorithm descriptor. Rows are created at catalog seed
// time and are read-only during simulation processing.
type Strategy struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Name                string          `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description         string          `gorm:"size:2048" json:"description"`
	TimeFrame           string          `gorm:"size:50" json:"time_frame"`
	SuccessRate         string          `gorm:"size:50" json:"success_rate"`
	BestMarketCondition string          `gorm:"size:100" json:"best_market_condition"`
	RiskRating          string          `gorm:"size:50" json:"risk_rating"`
	Parameters          *StrategyParams `gorm:"serializer:json" json:"parameters"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}
