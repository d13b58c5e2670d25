package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// SymbolRepository reads the symbol catalog. The simulation core only ever
// reads symbols; catalog maintenance writes through Save.
type SymbolRepository struct {
	db *gorm.DB
}

// NewSymbolRepository creates a repository backed by the main database.
func NewSymbolRepository() *SymbolRepository {
	return &SymbolRepository{db: database.MainDB}
}

// NewSymbolRepositoryWithDB allows overriding the underlying *gorm.DB
// instance, for tests or transactional sessions.
func NewSymbolRepositoryWithDB(db *gorm.DB) *SymbolRepository {
	return &SymbolRepository{db: db}
}

// GetByID fetches a symbol by primary key. Returns (nil, nil) when missing.
func (r *SymbolRepository) GetByID(ctx context.Context, id uint) (*model.Symbol, error) {
	var symbol model.Symbol

	err := r.db.WithContext(ctx).First(&symbol, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SymbolRepository",
			"op":   "GetByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch symbol")

		return nil, err
	}

	return &symbol, nil
}

// GetByCode fetches a symbol by its exchange ticker. Returns (nil, nil) when
// missing.
func (r *SymbolRepository) GetByCode(ctx context.Context, code string) (*model.Symbol, error) {
	var symbol model.Symbol

	err := r.db.WithContext(ctx).Where("code = ?", code).First(&symbol).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SymbolRepository",
			"op":   "GetByCode",
			"code": code,
		}).WithError(err).Error("Failed to fetch symbol by code")

		return nil, err
	}

	return &symbol, nil
}

// FindActive returns every symbol currently tracked for market-data refresh.
func (r *SymbolRepository) FindActive(ctx context.Context) ([]model.Symbol, error) {
	var symbols []model.Symbol

	err := r.db.WithContext(ctx).Where("active = ?", true).Find(&symbols).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SymbolRepository",
			"op":   "FindActive",
		}).WithError(err).Error("Failed to list active symbols")

		return nil, err
	}

	return symbols, nil
}

// Save inserts or updates a catalog symbol.
func (r *SymbolRepository) Save(ctx context.Context, symbol *model.Symbol) error {
	return r.db.WithContext(ctx).Save(symbol).Error
}
