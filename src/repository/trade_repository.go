package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// TradeRepository handles read/write operations for simulation trades.
type TradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{db: database.MainDB}
}

func NewTradeRepositoryWithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithDB returns a copy bound to the given session or transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create inserts a new trade, updating it with the generated ID.
func (r *TradeRepository) Create(ctx context.Context, trade *model.Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":          "TradeRepository",
			"op":            "Create",
			"simulation_id": trade.SimulationID,
			"type":          trade.Type,
		}).WithError(err).Error("Failed to create trade")

		return err
	}

	return nil
}

// RecentForSimulation returns up to limit trades for a simulation, most
// recent first.
func (r *TradeRepository) RecentForSimulation(ctx context.Context, simulationID uint, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 20
	}

	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":          "TradeRepository",
			"op":            "RecentForSimulation",
			"simulation_id": simulationID,
		}).WithError(err).Error("Failed to fetch recent trades")

		return nil, err
	}

	return trades, nil
}

// FindBySimulation lists every trade of a simulation, most recent first.
func (r *TradeRepository) FindBySimulation(ctx context.Context, simulationID uint) ([]model.Trade, error) {
	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("timestamp DESC").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// RecentForSimulations returns up to limit trades across a set of
// simulations, most recent first. Used for the per-user activity feed.
func (r *TradeRepository) RecentForSimulations(ctx context.Context, simulationIDs []uint, limit int) ([]model.Trade, error) {
	if len(simulationIDs) == 0 {
		return []model.Trade{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("simulation_id IN ?", simulationIDs).
		Order("timestamp DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TradeRepository",
			"op":    "RecentForSimulations",
			"count": len(simulationIDs),
		}).WithError(err).Error("Failed to fetch trades for simulations")

		return nil, err
	}

	return trades, nil
}
