// Package simulation contains the paper-trading core: position sizing and
// balance accounting, the lifecycle state machine, and the processing
// orchestrator driven by the scheduled sweep.
package simulation

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"papertrader/src/model"
	"papertrader/src/strategy"
)

// buyFraction is the share of the current balance committed to each BUY.
var buyFraction = decimal.NewFromFloat(0.1)

const (
	// duplicateWindow rate-limits repeated identical signals per simulation.
	duplicateWindow = time.Hour

	// recentTradeWindow bounds how many recent trades are inspected for
	// duplicate suppression and SELL close-out matching.
	recentTradeWindow = 5
)

var (
	ErrSimulationNotFound = errors.New("simulation not found")
	ErrNotActive          = errors.New("simulation is not active")
	ErrInsufficientFunds  = errors.New("trade amount exceeds current balance")
	ErrZeroQuantity       = errors.New("trade quantity rounds to zero")
	ErrNoOpenBuyTrade     = errors.New("no open buy trade to close")
	ErrDuplicateSignal    = errors.New("duplicate signal within suppression window")
)

// IsDuplicateSignal reports whether a trade of the same direction was already
// recorded inside the suppression window. Callers pass the most-recent-first
// trade window.
func IsDuplicateSignal(recent []model.Trade, signal strategy.Signal, now time.Time) bool {
	cutoff := now.Add(-duplicateWindow)
	for i, trade := range recent {
		if i >= recentTradeWindow {
			break
		}
		if trade.Type == string(signal) && trade.Timestamp.After(cutoff) {
			return true
		}
	}
	return false
}

// lastOpenBuy returns the most recent BUY in the window, or nil.
func lastOpenBuy(recent []model.Trade) *model.Trade {
	for i := range recent {
		if i >= recentTradeWindow {
			break
		}
		if recent[i].IsBuy() {
			return &recent[i]
		}
	}
	return nil
}

// BuildTrade sizes a trade for the given signal against the simulation's
// balance. BUY commits 10% of the current balance; SELL closes out the most
// recent open BUY symmetrically. The returned trade is not yet applied.
func BuildTrade(sim *model.Simulation, signal strategy.Signal, price float64, reason string, recent []model.Trade, now time.Time) (*model.Trade, error) {
	if !sim.IsActive() {
		return nil, ErrNotActive
	}

	priceDec := decimal.NewFromFloat(price)
	if priceDec.LessThanOrEqual(decimal.Zero) {
		return nil, ErrZeroQuantity
	}

	trade := &model.Trade{
		SimulationID: sim.ID,
		Timestamp:    now,
		Type:         string(signal),
		Price:        price,
		Status:       model.TradeStatusExecuted,
		Reason:       reason,
	}

	balance := decimal.NewFromFloat(sim.CurrentBalance)

	switch signal {
	case strategy.SignalBuy:
		budget := balance.Mul(buyFraction)
		quantity := budget.Div(priceDec).IntPart()
		if quantity <= 0 {
			return nil, ErrZeroQuantity
		}

		amount := priceDec.Mul(decimal.NewFromInt(quantity))
		if amount.GreaterThan(balance) {
			return nil, ErrInsufficientFunds
		}

		trade.Quantity = int(quantity)
		trade.Amount = amount.InexactFloat64()

	case strategy.SignalSell:
		buy := lastOpenBuy(recent)
		if buy == nil {
			return nil, ErrNoOpenBuyTrade
		}

		amount := priceDec.Mul(decimal.NewFromInt(int64(buy.Quantity)))
		buyAmount := decimal.NewFromFloat(buy.Amount)
		profitLoss := amount.Sub(buyAmount)

		trade.Quantity = buy.Quantity
		trade.Amount = amount.InexactFloat64()
		trade.ProfitLoss = profitLoss.InexactFloat64()
		if !buyAmount.IsZero() {
			trade.ProfitLossPercentage = profitLoss.Div(buyAmount).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}

	default:
		return nil, ErrZeroQuantity
	}

	return trade, nil
}

// ApplyTrade folds an executed trade into the simulation: balance, trade
// counters, and the derived profit/loss fields. ProfitLoss and its
// percentage are always recomputed from balance and initial investment here,
// never written independently.
func ApplyTrade(sim *model.Simulation, trade *model.Trade) {
	balance := decimal.NewFromFloat(sim.CurrentBalance)
	amount := decimal.NewFromFloat(trade.Amount)

	if trade.IsBuy() {
		balance = balance.Sub(amount)
	} else {
		balance = balance.Add(amount)
		if trade.ProfitLoss > 0 {
			sim.SuccessfulTrades++
		}
	}

	sim.CurrentBalance = balance.InexactFloat64()
	sim.TotalTrades++

	recomputeProfitLoss(sim, balance)
}

// SetBalance overwrites the current balance and re-derives the profit/loss
// fields, keeping the three mutually consistent.
func SetBalance(sim *model.Simulation, balance float64) {
	sim.CurrentBalance = balance
	recomputeProfitLoss(sim, decimal.NewFromFloat(balance))
}

func recomputeProfitLoss(sim *model.Simulation, balance decimal.Decimal) {
	initial := decimal.NewFromFloat(sim.InitialInvestment)
	profitLoss := balance.Sub(initial)

	sim.ProfitLoss = profitLoss.InexactFloat64()
	if initial.IsZero() {
		sim.ProfitLossPercentage = 0
		return
	}
	sim.ProfitLossPercentage = profitLoss.Div(initial).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
