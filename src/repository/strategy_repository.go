package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// StrategyRepository reads the strategy catalog. Strategies are seeded once
// and read-only during simulation processing.
type StrategyRepository struct {
	db *gorm.DB
}

func NewStrategyRepository() *StrategyRepository {
	return &StrategyRepository{db: database.MainDB}
}

func NewStrategyRepositoryWithDB(db *gorm.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// GetByID fetches a strategy by primary key. Returns (nil, nil) when missing.
func (r *StrategyRepository) GetByID(ctx context.Context, id uint) (*model.Strategy, error) {
	var strat model.Strategy

	err := r.db.WithContext(ctx).First(&strat, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "GetByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch strategy")

		return nil, err
	}

	return &strat, nil
}

// GetByName fetches a strategy by its unique name. Returns (nil, nil) when
// missing.
func (r *StrategyRepository) GetByName(ctx context.Context, name string) (*model.Strategy, error) {
	var strat model.Strategy

	err := r.db.WithContext(ctx).Where("name = ?", name).First(&strat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "GetByName",
			"name": name,
		}).WithError(err).Error("Failed to fetch strategy by name")

		return nil, err
	}

	return &strat, nil
}

// FindAll lists the whole catalog.
func (r *StrategyRepository) FindAll(ctx context.Context) ([]model.Strategy, error) {
	var strategies []model.Strategy

	if err := r.db.WithContext(ctx).Order("id").Find(&strategies).Error; err != nil {
		return nil, err
	}
	return strategies, nil
}

// SeedDefaults inserts the built-in strategy catalog, skipping names that
// already exist.
func (r *StrategyRepository) SeedDefaults(ctx context.Context) error {
	for _, strat := range DefaultStrategies() {
		existing, err := r.GetByName(ctx, strat.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		strat := strat
		if err := r.db.WithContext(ctx).Create(&strat).Error; err != nil {
			return err
		}

		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "SeedDefaults",
			"name": strat.Name,
		}).Info("Seeded default strategy")
	}

	return nil
}

// DefaultStrategies is the built-in catalog shipped with the product.
func DefaultStrategies() []model.Strategy {
	return []model.Strategy{
		{
			Name:                model.StrategyMovingAverageCross,
			Description:         "Buys when a shorter-term moving average crosses above a longer-term moving average and sells on the opposite cross.",
			TimeFrame:           "Medium-term",
			SuccessRate:         "60-70%",
			BestMarketCondition: "Trending markets",
			RiskRating:          "Medium",
			Parameters: &model.StrategyParams{
				FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9,
				BuyThreshold: 0.05, SellThreshold: -0.05, StopLoss: 5.0,
			},
		},
		{
			Name:                model.StrategyRSI,
			Description:         "Buys when the Relative Strength Index falls below the oversold threshold and sells when it rises above the overbought threshold.",
			TimeFrame:           "Short-term",
			SuccessRate:         "55-65%",
			BestMarketCondition: "Range-bound markets",
			RiskRating:          "Medium-High",
			Parameters: &model.StrategyParams{
				FastPeriod: 14, BuyThreshold: 30, SellThreshold: 70, StopLoss: 5.0,
			},
		},
		{
			Name:                model.StrategyMACDCross,
			Description:         "Buys when the MACD line crosses above its signal line and sells when it crosses below.",
			TimeFrame:           "Medium-term",
			SuccessRate:         "65-75%",
			BestMarketCondition: "Trending markets",
			RiskRating:          "Medium",
			Parameters: &model.StrategyParams{
				FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9, StopLoss: 5.0,
			},
		},
		{
			Name:                model.StrategyBollingerBands,
			Description:         "Buys when price closes below the lower Bollinger band and sells when it closes above the upper band.",
			TimeFrame:           "Short-term",
			SuccessRate:         "55-65%",
			BestMarketCondition: "Volatile markets",
			RiskRating:          "High",
			Parameters: &model.StrategyParams{
				FastPeriod: 20, SlowPeriod: 2, StopLoss: 5.0,
			},
		},
	}
}
