// Package strategy resolves catalog strategies into typed evaluator variants
// and turns recent price bars into trading decisions.
//
// Dispatch happens once, at resolution time: the strategy name plus its
// typed parameters produce one of a closed set of evaluators. Unknown names
// resolve to an evaluator that always holds, so a bad catalog row can never
// abort a processing run.
package strategy

import (
	"fmt"

	"papertrader/src/indicator"
	"papertrader/src/model"
)

// Evaluator turns a most-recent-first series of bars into a Decision.
type Evaluator interface {
	// Name returns the resolved strategy name, used in trade reasons.
	Name() string

	// MinBars is the minimum series length below which Evaluate holds.
	MinBars() int

	// Evaluate inspects the series and decides. Insufficient history yields
	// HOLD, never an error.
	Evaluate(bars []model.MarketData) Decision
}

// Resolve maps a catalog strategy to its evaluator variant. The overlay, when
// non-nil, replaces the catalog parameters wholesale (per-simulation tuning).
func Resolve(strat *model.Strategy, overlay *model.StrategyParams) Evaluator {
	if strat == nil {
		return unsupported{name: "missing strategy"}
	}

	params := strat.Parameters
	if overlay != nil {
		params = overlay
	}
	if params == nil {
		return unsupported{name: strat.Name}
	}

	switch strat.Name {
	case model.StrategyMovingAverageCross:
		return movingAverageCross{name: strat.Name, fast: params.FastPeriod, slow: params.SlowPeriod,
			buyThreshold: params.BuyThreshold, sellThreshold: params.SellThreshold}
	case model.StrategyMACDCross:
		return macdCross{name: strat.Name, fast: params.FastPeriod, slow: params.SlowPeriod,
			signal: params.SignalPeriod}
	case model.StrategyRSI:
		return rsiBands{name: strat.Name, period: params.FastPeriod,
			oversold: params.BuyThreshold, overbought: params.SellThreshold}
	case model.StrategyBollingerBands:
		// The slow period doubles as the band width in standard deviations.
		return bollinger{name: strat.Name, period: params.FastPeriod, width: float64(params.SlowPeriod)}
	default:
		return unsupported{name: strat.Name}
	}
}

func closesOf(bars []model.MarketData) []float64 {
	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}
	return closes
}

// unsupported always holds. It stands in for unknown or misconfigured
// catalog strategies.
type unsupported struct {
	name string
}

func (u unsupported) Name() string { return u.name }
func (u unsupported) MinBars() int { return 0 }

func (u unsupported) Evaluate([]model.MarketData) Decision {
	return Hold(fmt.Sprintf("%s: unsupported strategy", u.name))
}

// movingAverageCross signals when the fast SMA crosses the slow SMA, or when
// the normalized spread (fast-slow)/slow clears the configured thresholds.
type movingAverageCross struct {
	name          string
	fast, slow    int
	buyThreshold  float64
	sellThreshold float64
}

func (s movingAverageCross) Name() string { return s.name }

func (s movingAverageCross) MinBars() int { return s.slow + 2 }

func (s movingAverageCross) Evaluate(bars []model.MarketData) Decision {
	if len(bars) < s.MinBars() || s.fast <= 0 || s.slow <= 0 {
		return Hold("insufficient history for moving average crossover")
	}

	closes := closesOf(bars)
	fastCur := indicator.SMA(closes, s.fast, 0)
	fastPrev := indicator.SMA(closes, s.fast, 1)
	slowCur := indicator.SMA(closes, s.slow, 0)
	slowPrev := indicator.SMA(closes, s.slow, 1)

	var crossover float64
	if slowCur != 0 {
		crossover = (fastCur - slowCur) / slowCur
	}

	crossedUp := fastPrev <= slowPrev && fastCur > slowCur
	crossedDown := fastPrev >= slowPrev && fastCur < slowCur

	switch {
	case crossedUp || (s.buyThreshold > 0 && crossover > s.buyThreshold):
		return Decision{Signal: SignalBuy,
			Reason: fmt.Sprintf("%s: fast MA %.4f crossed above slow MA %.4f (crossover %.4f)", s.name, fastCur, slowCur, crossover)}
	case crossedDown || (s.sellThreshold < 0 && crossover < s.sellThreshold):
		return Decision{Signal: SignalSell,
			Reason: fmt.Sprintf("%s: fast MA %.4f crossed below slow MA %.4f (crossover %.4f)", s.name, fastCur, slowCur, crossover)}
	}

	return Hold(fmt.Sprintf("%s: no crossover (value %.4f)", s.name, crossover))
}

// macdCross signals on the MACD line crossing its signal line.
type macdCross struct {
	name               string
	fast, slow, signal int
}

func (s macdCross) Name() string { return s.name }

func (s macdCross) MinBars() int { return s.slow + s.signal + 2 }

func (s macdCross) Evaluate(bars []model.MarketData) Decision {
	if len(bars) < s.MinBars() || s.fast <= 0 || s.slow <= 0 {
		return Hold("insufficient history for MACD crossover")
	}

	closes := closesOf(bars)
	macdSeries := make([]float64, s.signal+2)
	for i := range macdSeries {
		macdSeries[i] = indicator.MACD(closes, s.fast, s.slow, i)
	}
	macdCur, macdPrev := macdSeries[0], macdSeries[1]
	signalCur := indicator.SignalLine(macdSeries, s.signal, 0)
	signalPrev := indicator.SignalLine(macdSeries, s.signal, 1)

	switch {
	case macdPrev < signalPrev && macdCur > signalCur:
		return Decision{Signal: SignalBuy,
			Reason: fmt.Sprintf("%s: MACD %.4f crossed above signal %.4f", s.name, macdCur, signalCur)}
	case macdPrev > signalPrev && macdCur < signalCur:
		return Decision{Signal: SignalSell,
			Reason: fmt.Sprintf("%s: MACD %.4f crossed below signal %.4f", s.name, macdCur, signalCur)}
	}

	return Hold(fmt.Sprintf("%s: no signal-line crossover", s.name))
}

// rsiBands signals when RSI leaves the oversold/overbought band.
type rsiBands struct {
	name       string
	period     int
	oversold   float64
	overbought float64
}

func (s rsiBands) Name() string { return s.name }

func (s rsiBands) MinBars() int { return s.period + 1 }

func (s rsiBands) Evaluate(bars []model.MarketData) Decision {
	if len(bars) < s.MinBars() || s.period <= 0 {
		return Hold("insufficient history for RSI")
	}

	rsi := indicator.RSI(closesOf(bars), s.period)

	switch {
	case rsi < s.oversold:
		return Decision{Signal: SignalBuy,
			Reason: fmt.Sprintf("%s: RSI %.2f below oversold %.2f", s.name, rsi, s.oversold)}
	case rsi > s.overbought:
		return Decision{Signal: SignalSell,
			Reason: fmt.Sprintf("%s: RSI %.2f above overbought %.2f", s.name, rsi, s.overbought)}
	}

	return Hold(fmt.Sprintf("%s: RSI %.2f inside bands", s.name, rsi))
}

// bollinger signals when the latest close escapes the bands.
type bollinger struct {
	name   string
	period int
	width  float64
}

func (s bollinger) Name() string { return s.name }

func (s bollinger) MinBars() int { return s.period + 1 }

func (s bollinger) Evaluate(bars []model.MarketData) Decision {
	if len(bars) < s.MinBars() || s.period <= 0 {
		return Hold("insufficient history for Bollinger bands")
	}

	closes := closesOf(bars)
	_, upper, lower := indicator.BollingerBands(closes, s.period, s.width)
	price := closes[0]

	switch {
	case price < lower:
		return Decision{Signal: SignalBuy,
			Reason: fmt.Sprintf("%s: close %.2f below lower band %.2f", s.name, price, lower)}
	case price > upper:
		return Decision{Signal: SignalSell,
			Reason: fmt.Sprintf("%s: close %.2f above upper band %.2f", s.name, price, upper)}
	}

	return Hold(fmt.Sprintf("%s: close %.2f inside bands", s.name, price))
}
