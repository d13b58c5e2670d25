package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrader/src/database"
	"papertrader/src/model"
)

// MarketDataRepository is the price-series store: append-mostly OHLCV bars
// per symbol, totally ordered by timestamp for latest/range queries.
type MarketDataRepository struct {
	db *gorm.DB
}

func NewMarketDataRepository() *MarketDataRepository {
	return &MarketDataRepository{db: database.MainDB}
}

func NewMarketDataRepositoryWithDB(db *gorm.DB) *MarketDataRepository {
	return &MarketDataRepository{db: db}
}

// Latest returns the most recent bar for a symbol, (nil, nil) when the series
// is empty.
func (r *MarketDataRepository) Latest(ctx context.Context, symbolID uint) (*model.MarketData, error) {
	var bar model.MarketData

	err := r.db.WithContext(ctx).
		Where("symbol_id = ?", symbolID).
		Order("timestamp DESC").
		First(&bar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":      "MarketDataRepository",
			"op":        "Latest",
			"symbol_id": symbolID,
		}).WithError(err).Error("Failed to fetch latest bar")

		return nil, err
	}

	return &bar, nil
}

// Recent returns up to limit bars for a symbol, most recent first.
func (r *MarketDataRepository) Recent(ctx context.Context, symbolID uint, limit int) ([]model.MarketData, error) {
	if limit <= 0 {
		limit = 100
	}

	var bars []model.MarketData

	err := r.db.WithContext(ctx).
		Where("symbol_id = ?", symbolID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&bars).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "MarketDataRepository",
			"op":        "Recent",
			"symbol_id": symbolID,
			"limit":     limit,
		}).WithError(err).Error("Failed to fetch recent bars")

		return nil, err
	}

	return bars, nil
}

// Range returns bars in [start, end) in chronological order.
func (r *MarketDataRepository) Range(ctx context.Context, symbolID uint, start, end time.Time) ([]model.MarketData, error) {
	var bars []model.MarketData

	err := r.db.WithContext(ctx).
		Where("symbol_id = ? AND timestamp >= ? AND timestamp < ?", symbolID, start, end).
		Order("timestamp ASC").
		Find(&bars).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "MarketDataRepository",
			"op":        "Range",
			"symbol_id": symbolID,
		}).WithError(err).Error("Failed to fetch bar range")

		return nil, err
	}

	return bars, nil
}

// upsertBars writes bars keyed on (symbol_id, timestamp), so re-fetching an
// unchanged quote is idempotent.
func (r *MarketDataRepository) upsertBars(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol_id"}, {Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "source"}),
	})
}

// Save appends one bar to the series.
func (r *MarketDataRepository) Save(ctx context.Context, bar *model.MarketData) error {
	if err := r.upsertBars(ctx).Create(bar).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "MarketDataRepository",
			"op":        "Save",
			"symbol_id": bar.SymbolID,
		}).WithError(err).Error("Failed to save bar")

		return err
	}

	return nil
}

// SaveAll appends a batch of bars in one insert.
func (r *MarketDataRepository) SaveAll(ctx context.Context, bars []model.MarketData) error {
	if len(bars) == 0 {
		return nil
	}

	if err := r.upsertBars(ctx).Create(&bars).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "MarketDataRepository",
			"op":    "SaveAll",
			"count": len(bars),
		}).WithError(err).Error("Failed to save bars")

		return err
	}

	return nil
}
