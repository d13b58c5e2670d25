package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/marketdata"
	"papertrader/src/model"
	"papertrader/src/repository"
	"papertrader/src/strategy"
)

// defaultLookback covers the longest indicator requirement of the default
// catalog (slow 26 + signal 9 + 2) with headroom.
const defaultLookback = 100

// Processor runs the signal-generation pipeline for simulations: resolve
// catalog entries, ensure market data, evaluate the strategy, and apply the
// resulting trade atomically.
//
// A per-simulation mutex serializes the scheduled sweep against manual trade
// execution so the two can never race on one simulation's balance.
type Processor struct {
	db          *gorm.DB
	simulations *repository.SimulationRepository
	trades      *repository.TradeRepository
	symbols     *repository.SymbolRepository
	strategies  *repository.StrategyRepository
	market      *marketdata.Service
	lookback    int
	now         func() time.Time

	locks sync.Map // simulation ID -> *sync.Mutex
}

func NewProcessor(
	db *gorm.DB,
	simulations *repository.SimulationRepository,
	trades *repository.TradeRepository,
	symbols *repository.SymbolRepository,
	strategies *repository.StrategyRepository,
	market *marketdata.Service,
) *Processor {
	return &Processor{
		db:          db,
		simulations: simulations,
		trades:      trades,
		symbols:     symbols,
		strategies:  strategies,
		market:      market,
		lookback:    defaultLookback,
		now:         time.Now,
	}
}

// SetLookback overrides how many recent bars feed the evaluator. Values
// below one keep the default.
func (p *Processor) SetLookback(bars int) {
	if bars > 0 {
		p.lookback = bars
	}
}

func (p *Processor) lock(simulationID uint) func() {
	value, _ := p.locks.LoadOrStore(simulationID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ProcessByID runs the full pipeline for one simulation. The simulation is
// loaded under its lock so a concurrent manual trade can never leave the
// pipeline working on a stale balance.
func (p *Processor) ProcessByID(ctx context.Context, simulationID uint) error {
	unlock := p.lock(simulationID)
	defer unlock()

	sim, err := p.simulations.GetByID(ctx, simulationID)
	if err != nil {
		return err
	}
	if sim == nil {
		return ErrSimulationNotFound
	}
	if !sim.IsActive() {
		return ErrNotActive
	}

	return p.process(ctx, sim)
}

func (p *Processor) process(ctx context.Context, sim *model.Simulation) error {
	symbol, err := p.symbols.GetByID(ctx, sim.SymbolID)
	if err != nil {
		return err
	}
	if symbol == nil {
		return fmt.Errorf("symbol %d for simulation %d not found", sim.SymbolID, sim.ID)
	}

	strat, err := p.strategies.GetByID(ctx, sim.StrategyID)
	if err != nil {
		return err
	}
	if strat == nil {
		return fmt.Errorf("strategy %d for simulation %d not found", sim.StrategyID, sim.ID)
	}

	latest, err := p.latestBar(ctx, symbol)
	if err != nil {
		return err
	}

	bars, err := p.market.Recent(ctx, symbol.ID, p.lookback)
	if err != nil {
		return err
	}

	evaluator := strategy.Resolve(strat, sim.Parameters)
	decision := evaluator.Evaluate(bars)
	if !decision.Actionable() {
		logger.WithFields(map[string]interface{}{
			"simulation_id": sim.ID,
			"symbol":        symbol.Code,
			"reason":        decision.Reason,
		}).Debug("Holding")
		return nil
	}

	recent, err := p.trades.RecentForSimulation(ctx, sim.ID, recentTradeWindow)
	if err != nil {
		return err
	}

	now := p.now()
	if IsDuplicateSignal(recent, decision.Signal, now) {
		logger.WithFields(map[string]interface{}{
			"simulation_id": sim.ID,
			"signal":        decision.Signal,
		}).Debug("Duplicate signal suppressed")
		return nil
	}

	trade, err := BuildTrade(sim, decision.Signal, latest.Close, decision.Reason, recent, now)
	if err != nil {
		// Sizing rejections are a normal outcome of a sweep pass.
		logger.WithFields(map[string]interface{}{
			"simulation_id": sim.ID,
			"signal":        decision.Signal,
		}).WithError(err).Debug("Trade rejected")
		return nil
	}

	if err := p.persistTrade(ctx, sim, trade); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"simulation_id": sim.ID,
		"trade_id":      trade.ID,
		"type":          trade.Type,
		"quantity":      trade.Quantity,
		"amount":        trade.Amount,
		"balance":       sim.CurrentBalance,
	}).Info("Trade executed")

	return nil
}

// latestBar returns the newest stored bar for the symbol, triggering one
// on-demand provider fetch when the series is empty.
func (p *Processor) latestBar(ctx context.Context, symbol *model.Symbol) (*model.MarketData, error) {
	latest, err := p.market.Latest(ctx, symbol.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return latest, nil
	}

	if _, err := p.market.FetchAndSaveLatest(ctx, symbol.Code); err != nil {
		return nil, fmt.Errorf("backfill for %s: %w", symbol.Code, err)
	}

	latest, err = p.market.Latest(ctx, symbol.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, fmt.Errorf("no market data for %s after backfill", symbol.Code)
	}
	return latest, nil
}

// persistTrade applies the trade to the simulation and writes both rows in
// one transaction, so a trade is never recorded without its balance effect.
func (p *Processor) persistTrade(ctx context.Context, sim *model.Simulation, trade *model.Trade) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.trades.WithDB(tx).Create(ctx, trade); err != nil {
			return err
		}

		ApplyTrade(sim, trade)

		return p.simulations.WithDB(tx).Save(ctx, sim)
	})
}

// ManualTradeInput describes an operator-initiated trade that bypasses the
// strategy evaluator but not the ledger.
type ManualTradeInput struct {
	Signal strategy.Signal
	Reason string
}

// ExecuteManualTrade sizes and applies a trade for the simulation at the
// latest stored price. It shares the per-simulation lock, duplicate
// suppression, and atomic persistence with the sweep path; rejections come
// back as typed errors for the HTTP layer.
func (p *Processor) ExecuteManualTrade(ctx context.Context, simulationID uint, input ManualTradeInput) (*model.Trade, error) {
	unlock := p.lock(simulationID)
	defer unlock()

	sim, err := p.simulations.GetByID(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	if sim == nil {
		return nil, ErrSimulationNotFound
	}
	if !sim.IsActive() {
		return nil, ErrNotActive
	}

	symbol, err := p.symbols.GetByID(ctx, sim.SymbolID)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, fmt.Errorf("symbol %d for simulation %d not found", sim.SymbolID, sim.ID)
	}

	latest, err := p.latestBar(ctx, symbol)
	if err != nil {
		return nil, err
	}

	recent, err := p.trades.RecentForSimulation(ctx, sim.ID, recentTradeWindow)
	if err != nil {
		return nil, err
	}

	now := p.now()
	if IsDuplicateSignal(recent, input.Signal, now) {
		return nil, ErrDuplicateSignal
	}

	reason := input.Reason
	if reason == "" {
		reason = "manual trade"
	}

	trade, err := BuildTrade(sim, input.Signal, latest.Close, reason, recent, now)
	if err != nil {
		return nil, err
	}

	if err := p.persistTrade(ctx, sim, trade); err != nil {
		return nil, err
	}

	return trade, nil
}

// RunSweep processes every active simulation, fault-isolated per item: a
// failing simulation is logged and skipped, never aborts the sweep.
func (p *Processor) RunSweep(ctx context.Context) {
	sweepID := uuid.NewString()
	log := logger.WithField("sweep_id", sweepID)

	sims, err := p.simulations.FindActive(ctx)
	if err != nil {
		log.WithError(err).Error("Sweep could not list active simulations")
		return
	}

	log.WithField("count", len(sims)).Info("Sweep started")

	processed, failed := 0, 0
	for i := range sims {
		id := sims[i].ID
		if err := p.processGuarded(ctx, id); err != nil {
			failed++
			log.WithFields(map[string]interface{}{
				"simulation_id": id,
			}).WithError(err).Error("Simulation processing failed")
			continue
		}
		processed++
	}

	log.WithFields(map[string]interface{}{
		"processed": processed,
		"failed":    failed,
	}).Info("Sweep finished")
}

// processGuarded converts a panic inside one simulation's pipeline into an
// error so it cannot take down the sweep. A simulation paused or stopped
// between listing and processing is skipped silently.
func (p *Processor) processGuarded(ctx context.Context, simulationID uint) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing simulation %d: %v", simulationID, r)
		}
	}()

	err = p.ProcessByID(ctx, simulationID)
	if errors.Is(err, ErrNotActive) || errors.Is(err, ErrSimulationNotFound) {
		return nil
	}
	return err
}
