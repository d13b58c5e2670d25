package model

import "time"

const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"

	TradeStatusPending  = "pending"
	TradeStatusExecuted = "executed"
	TradeStatusFailed   = "failed"
)

// Trade is one executed buy/sell event belonging to a simulation. Rows are
// immutable once persisted except for the status transition.
type Trade struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	SimulationID         uint      `gorm:"not null;index" json:"simulation_id"`
	Timestamp            time.Time `gorm:"not null;index" json:"timestamp"`
	Type                 string    `gorm:"size:10;not null" json:"type"`
	Price                float64   `gorm:"not null" json:"price"`
	Quantity             int       `gorm:"not null" json:"quantity"`
	Amount               float64   `gorm:"not null" json:"amount"`
	ProfitLoss           float64   `json:"profit_loss"`
	ProfitLossPercentage float64   `json:"profit_loss_percentage"`
	Status               string    `gorm:"size:20;not null;default:pending" json:"status"`
	Reason               string    `gorm:"size:512" json:"reason"`
	CreatedAt            time.Time `json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// IsBuy reports whether the trade opened a position.
func (t *Trade) IsBuy() bool {
	return t.Type == TradeTypeBuy
}
