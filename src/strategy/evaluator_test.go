package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/src/model"
)

// bars builds a most-recent-first series from the given close prices.
func bars(closes ...float64) []model.MarketData {
	out := make([]model.MarketData, len(closes))
	for i, c := range closes {
		out[i] = model.MarketData{Close: c}
	}
	return out
}

func maStrategy(buyThreshold, sellThreshold float64) *model.Strategy {
	return &model.Strategy{
		Name: model.StrategyMovingAverageCross,
		Parameters: &model.StrategyParams{
			FastPeriod:    2,
			SlowPeriod:    3,
			BuyThreshold:  buyThreshold,
			SellThreshold: sellThreshold,
		},
	}
}

func TestResolveUnknownStrategyHolds(t *testing.T) {
	eval := Resolve(&model.Strategy{Name: "Astrology", Parameters: &model.StrategyParams{}}, nil)

	decision := eval.Evaluate(bars(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	assert.Equal(t, SignalHold, decision.Signal)
	assert.Contains(t, decision.Reason, "unsupported")
}

func TestResolveMissingParametersHolds(t *testing.T) {
	eval := Resolve(&model.Strategy{Name: model.StrategyRSI}, nil)

	assert.Equal(t, SignalHold, eval.Evaluate(bars(1, 2, 3)).Signal)
}

func TestResolveNilStrategyHolds(t *testing.T) {
	assert.Equal(t, SignalHold, Resolve(nil, nil).Evaluate(nil).Signal)
}

func TestResolveOverlayReplacesCatalogParams(t *testing.T) {
	strat := &model.Strategy{
		Name:       model.StrategyRSI,
		Parameters: &model.StrategyParams{FastPeriod: 14, BuyThreshold: 30, SellThreshold: 70},
	}
	overlay := &model.StrategyParams{FastPeriod: 2, BuyThreshold: 30, SellThreshold: 70}

	eval := Resolve(strat, overlay)

	// Three bars satisfy the overlay period of 2, not the catalog 14.
	decision := eval.Evaluate(bars(90, 95, 100))
	require.Equal(t, SignalBuy, decision.Signal, decision.Reason)
}

func TestMovingAverageCrossoverBuy(t *testing.T) {
	eval := Resolve(maStrategy(0, 0), nil)

	decision := eval.Evaluate(bars(20, 10, 10, 10, 10))

	require.Equal(t, SignalBuy, decision.Signal, decision.Reason)
	assert.Contains(t, decision.Reason, model.StrategyMovingAverageCross)
}

func TestMovingAverageCrossoverSell(t *testing.T) {
	eval := Resolve(maStrategy(0, 0), nil)

	decision := eval.Evaluate(bars(5, 10, 10, 10, 10))

	require.Equal(t, SignalSell, decision.Signal, decision.Reason)
}

func TestMovingAverageThresholdBuyWithoutCross(t *testing.T) {
	eval := Resolve(maStrategy(0.05, -0.05), nil)

	// Fast MA sits well above the slow MA without a fresh cross; the
	// normalized spread clears the 5% buy threshold.
	decision := eval.Evaluate(bars(30, 28, 10, 10, 10))

	require.Equal(t, SignalBuy, decision.Signal, decision.Reason)
	assert.Contains(t, decision.Reason, "crossover")
}

func TestMovingAverageHoldWithoutSignal(t *testing.T) {
	eval := Resolve(maStrategy(0.5, -0.5), nil)

	decision := eval.Evaluate(bars(10, 10, 10, 10, 10))

	assert.Equal(t, SignalHold, decision.Signal)
}

func TestMovingAverageInsufficientHistoryHolds(t *testing.T) {
	eval := Resolve(maStrategy(0, 0), nil)

	// slowPeriod+2 = 5 bars required.
	decision := eval.Evaluate(bars(20, 10, 10, 10))

	assert.Equal(t, SignalHold, decision.Signal)
	assert.Contains(t, decision.Reason, "insufficient history")
}

func TestMACDCrossoverBuyAndSell(t *testing.T) {
	strat := &model.Strategy{
		Name:       model.StrategyMACDCross,
		Parameters: &model.StrategyParams{FastPeriod: 2, SlowPeriod: 4, SignalPeriod: 3},
	}
	eval := Resolve(strat, nil)

	require.Equal(t, 9, eval.MinBars())

	buy := eval.Evaluate(bars(100, 90, 95, 100, 105, 110, 115, 120, 125))
	require.Equal(t, SignalBuy, buy.Signal, buy.Reason)
	assert.Contains(t, buy.Reason, "MACD")

	sell := eval.Evaluate(bars(100, 110, 105, 100, 95, 90, 85, 80, 75))
	require.Equal(t, SignalSell, sell.Signal, sell.Reason)
}

func TestMACDInsufficientHistoryHolds(t *testing.T) {
	strat := &model.Strategy{
		Name:       model.StrategyMACDCross,
		Parameters: &model.StrategyParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9},
	}

	decision := Resolve(strat, nil).Evaluate(bars(1, 2, 3, 4, 5))

	assert.Equal(t, SignalHold, decision.Signal)
}

func TestRSISignals(t *testing.T) {
	strat := &model.Strategy{
		Name:       model.StrategyRSI,
		Parameters: &model.StrategyParams{FastPeriod: 3, BuyThreshold: 30, SellThreshold: 70},
	}
	eval := Resolve(strat, nil)

	// Falling prices (most-recent-first ascending) drive RSI to 0.
	buy := eval.Evaluate(bars(100, 101, 102, 103))
	require.Equal(t, SignalBuy, buy.Signal, buy.Reason)
	assert.Contains(t, buy.Reason, "oversold")

	// Rising prices drive RSI toward 100.
	sell := eval.Evaluate(bars(103, 102, 101, 100))
	require.Equal(t, SignalSell, sell.Signal, sell.Reason)

	hold := eval.Evaluate(bars(100, 101, 99, 102))
	assert.Equal(t, SignalHold, hold.Signal)
}

func TestBollingerSignals(t *testing.T) {
	strat := &model.Strategy{
		Name:       model.StrategyBollingerBands,
		Parameters: &model.StrategyParams{FastPeriod: 9, SlowPeriod: 1},
	}
	eval := Resolve(strat, nil)

	steady := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100}

	// Last close far below an otherwise steady band.
	buy := eval.Evaluate(bars(append([]float64{80}, steady...)...))
	require.Equal(t, SignalBuy, buy.Signal, buy.Reason)
	assert.Contains(t, buy.Reason, "lower band")

	sell := eval.Evaluate(bars(append([]float64{120}, steady...)...))
	require.Equal(t, SignalSell, sell.Signal, sell.Reason)

	hold := eval.Evaluate(bars(append([]float64{100}, steady...)...))
	assert.Equal(t, SignalHold, hold.Signal)
}
