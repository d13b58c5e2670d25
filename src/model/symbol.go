package model

import "time"

const (
	SymbolTypeEquity = "equity"
	SymbolTypeIndex  = "index"
	SymbolTypeCrypto = "crypto"
)

// Symbol is a tradable instrument tracked by the catalog. The code is the
// exchange ticker and is the immutable identity of the row.
type Symbol struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Exchange    string    `gorm:"size:100" json:"exchange"`
	Type        string    `gorm:"size:30;not null;default:equity" json:"type"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	Sector      string    `gorm:"size:255" json:"sector,omitempty"`
	Industry    string    `gorm:"size:255" json:"industry,omitempty"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Symbol) TableName() string {
	return "symbols"
}
