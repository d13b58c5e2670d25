package simulation

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
	"papertrader/src/repository"
)

// Service implements the simulation lifecycle: create, pause, resume, stop,
// and the generic partial update. Trade execution lives on the Processor.
type Service struct {
	simulations *repository.SimulationRepository
	trades      *repository.TradeRepository
	now         func() time.Time
}

func NewService(simulations *repository.SimulationRepository, trades *repository.TradeRepository) *Service {
	return &Service{
		simulations: simulations,
		trades:      trades,
		now:         time.Now,
	}
}

// CreateInput carries the user-settable fields of a new simulation.
type CreateInput struct {
	UserID            uint
	SymbolID          uint
	StrategyID        uint
	InitialInvestment float64
	ReinvestProfits   bool
	TimePeriod        string
	Parameters        *model.StrategyParams
}

// Create starts a new active simulation with its balance equal to the
// initial investment.
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Simulation, error) {
	sim := &model.Simulation{
		UserID:            input.UserID,
		SymbolID:          input.SymbolID,
		StrategyID:        input.StrategyID,
		Status:            model.SimulationStatusActive,
		StartTime:         s.now(),
		InitialInvestment: input.InitialInvestment,
		CurrentBalance:    input.InitialInvestment,
		ReinvestProfits:   input.ReinvestProfits,
		TimePeriod:        input.TimePeriod,
		Parameters:        input.Parameters,
	}

	if err := s.simulations.Create(ctx, sim); err != nil {
		return nil, err
	}

	return sim, nil
}

// Get fetches one simulation.
func (s *Service) Get(ctx context.Context, id uint) (*model.Simulation, error) {
	sim, err := s.simulations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sim == nil {
		return nil, ErrSimulationNotFound
	}
	return sim, nil
}

// ListForUser returns a user's simulations, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]model.Simulation, error) {
	return s.simulations.FindByUser(ctx, userID)
}

// Pause suspends an active simulation. The sweep skips paused simulations
// without touching balances, counters, or timestamps.
func (s *Service) Pause(ctx context.Context, id uint) (*model.Simulation, error) {
	return s.transition(ctx, id, model.SimulationStatusPaused, false)
}

// Resume reactivates a paused simulation.
func (s *Service) Resume(ctx context.Context, id uint) (*model.Simulation, error) {
	return s.transition(ctx, id, model.SimulationStatusActive, false)
}

// Stop completes a simulation and stamps its end time.
func (s *Service) Stop(ctx context.Context, id uint) (*model.Simulation, error) {
	return s.transition(ctx, id, model.SimulationStatusCompleted, true)
}

func (s *Service) transition(ctx context.Context, id uint, status string, setEnd bool) (*model.Simulation, error) {
	sim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sim.Status = status
	if setEnd {
		end := s.now()
		sim.EndTime = &end
	}

	if err := s.simulations.Save(ctx, sim); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"simulation_id": sim.ID,
		"status":        status,
	}).Info("Simulation status changed")

	return sim, nil
}

// UpdateInput is a partial-field merge for a simulation. Nil pointers leave
// the field untouched.
type UpdateInput struct {
	Status         *string
	CurrentBalance *float64
	Parameters     *model.StrategyParams
}

// Update applies a partial update. Status changes to a terminal value route
// through the same end-time rule as Stop, so a terminal record is never left
// without its end timestamp. Balance writes re-derive profit/loss.
func (s *Service) Update(ctx context.Context, id uint, input UpdateInput) (*model.Simulation, error) {
	sim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		sim.Status = *input.Status
		if sim.Terminal() && sim.EndTime == nil {
			end := s.now()
			sim.EndTime = &end
		}
	}

	if input.CurrentBalance != nil {
		SetBalance(sim, *input.CurrentBalance)
	}

	if input.Parameters != nil {
		sim.Parameters = input.Parameters
	}

	if err := s.simulations.Save(ctx, sim); err != nil {
		return nil, err
	}

	return sim, nil
}

// TradesFor lists a simulation's trades, newest first.
func (s *Service) TradesFor(ctx context.Context, simulationID uint) ([]model.Trade, error) {
	return s.trades.FindBySimulation(ctx, simulationID)
}

// RecentTradesForUser returns the newest trades across all of a user's
// simulations.
func (s *Service) RecentTradesForUser(ctx context.Context, userID uint, limit int) ([]model.Trade, error) {
	sims, err := s.simulations.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(sims))
	for i := range sims {
		ids[i] = sims[i].ID
	}

	return s.trades.RecentForSimulations(ctx, ids, limit)
}
