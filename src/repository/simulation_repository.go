package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// SimulationRepository handles read/write operations for simulations.
// Balance-affecting writes must go through the same gorm transaction as the
// paired trade insert; WithDB exists for exactly that.
type SimulationRepository struct {
	db *gorm.DB
}

func NewSimulationRepository() *SimulationRepository {
	return &SimulationRepository{db: database.MainDB}
}

func NewSimulationRepositoryWithDB(db *gorm.DB) *SimulationRepository {
	return &SimulationRepository{db: db}
}

// WithDB returns a copy bound to the given session or transaction.
func (r *SimulationRepository) WithDB(db *gorm.DB) *SimulationRepository {
	return &SimulationRepository{db: db}
}

// Create inserts a new simulation, updating it with the generated ID.
func (r *SimulationRepository) Create(ctx context.Context, sim *model.Simulation) error {
	if err := r.db.WithContext(ctx).Create(sim).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SimulationRepository",
			"op":      "Create",
			"user_id": sim.UserID,
		}).WithError(err).Error("Failed to create simulation")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":          "SimulationRepository",
		"op":            "Create",
		"simulation_id": sim.ID,
	}).Info("Simulation created")

	return nil
}

// GetByID fetches a simulation by primary key. Returns (nil, nil) when
// missing.
func (r *SimulationRepository) GetByID(ctx context.Context, id uint) (*model.Simulation, error) {
	var sim model.Simulation

	err := r.db.WithContext(ctx).First(&sim, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SimulationRepository",
			"op":   "GetByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch simulation")

		return nil, err
	}

	return &sim, nil
}

// FindByUser lists a user's simulations, newest first.
func (r *SimulationRepository) FindByUser(ctx context.Context, userID uint) ([]model.Simulation, error) {
	var sims []model.Simulation

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&sims).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SimulationRepository",
			"op":      "FindByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to list simulations for user")

		return nil, err
	}

	return sims, nil
}

// FindActive returns every simulation currently eligible for the sweep.
func (r *SimulationRepository) FindActive(ctx context.Context) ([]model.Simulation, error) {
	var sims []model.Simulation

	err := r.db.WithContext(ctx).
		Where("status = ?", model.SimulationStatusActive).
		Order("id").
		Find(&sims).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SimulationRepository",
			"op":   "FindActive",
		}).WithError(err).Error("Failed to list active simulations")

		return nil, err
	}

	return sims, nil
}

// Save writes back a mutated simulation.
func (r *SimulationRepository) Save(ctx context.Context, sim *model.Simulation) error {
	if err := r.db.WithContext(ctx).Save(sim).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":          "SimulationRepository",
			"op":            "Save",
			"simulation_id": sim.ID,
		}).WithError(err).Error("Failed to save simulation")

		return err
	}

	return nil
}
