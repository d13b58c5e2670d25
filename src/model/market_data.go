package model

import "time"

const (
	MarketDataSourceYahoo        = "yahoo"
	MarketDataSourceAlphaVantage = "alphavantage"
	MarketDataSourceBinance      = "binance"
)

// MarketData is one OHLCV price bar for a symbol at a point in time. Bars are
// append-only: ingestion never mutates an existing row.
type MarketData struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SymbolID  uint      `gorm:"not null;uniqueIndex:idx_market_data_symbol_ts" json:"symbol_id"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:idx_market_data_symbol_ts" json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Source    string    `gorm:"size:30" json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func (MarketData) TableName() string {
	return "market_data"
}
