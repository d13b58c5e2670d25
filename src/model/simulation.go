package model

import "time"

const (
	SimulationStatusActive    = "active"
	SimulationStatusPaused    = "paused"
	SimulationStatusCompleted = "completed"
	SimulationStatusFailed    = "failed"
)

// Simulation is one paper-trading run of a strategy against a symbol.
//
// CurrentBalance, ProfitLoss and ProfitLossPercentage are kept mutually
// consistent: the ledger recomputes both P/L fields from
// CurrentBalance - InitialInvestment on every balance mutation, they are never
// written independently.
type Simulation struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UserID               uint            `gorm:"not null;index" json:"user_id"`
	SymbolID             uint            `gorm:"not null;index" json:"symbol_id"`
	StrategyID           uint            `gorm:"not null;index" json:"strategy_id"`
	Status               string          `gorm:"size:20;not null;index;default:active" json:"status"`
	StartTime            time.Time       `json:"start_time"`
	EndTime              *time.Time      `json:"end_time,omitempty"`
	InitialInvestment    float64         `gorm:"not null" json:"initial_investment"`
	CurrentBalance       float64         `gorm:"not null" json:"current_balance"`
	ProfitLoss           float64         `json:"profit_loss"`
	ProfitLossPercentage float64         `json:"profit_loss_percentage"`
	TotalTrades          int             `gorm:"not null;default:0" json:"total_trades"`
	SuccessfulTrades     int             `gorm:"not null;default:0" json:"successful_trades"`
	ReinvestProfits      bool            `gorm:"not null;default:false" json:"reinvest_profits"`
	TimePeriod           string          `gorm:"size:30" json:"time_period,omitempty"`
	Parameters           *StrategyParams `gorm:"serializer:json" json:"parameters,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (Simulation) TableName() string {
	return "simulations"
}

// IsActive reports whether the simulation is eligible for trade execution and
// for the scheduled sweep.
func (s *Simulation) IsActive() bool {
	return s.Status == SimulationStatusActive
}

// Terminal reports whether the simulation reached a final status.
func (s *Simulation) Terminal() bool {
	return s.Status == SimulationStatusCompleted || s.Status == SimulationStatusFailed
}
