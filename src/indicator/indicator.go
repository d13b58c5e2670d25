// Package indicator provides pure technical-indicator calculations over a
// most-recent-first series of closing prices. All functions are deterministic
// and never mutate their input.
package indicator

import "math"

// minAvgLoss floors the RSI average loss to avoid division by zero.
const minAvgLoss = 0.001

// rsiNeutral is returned when there is not enough data to compute RSI.
const rsiNeutral = 50.0

// SMA returns the arithmetic mean of the `period` closes starting at `offset`
// positions back. Offset 0 is the current value, offset 1 the previous one.
// The caller must ensure len(closes) >= offset+period; short windows are
// averaged over whatever is available, matching the crossover math that always
// validates the series length first.
func SMA(closes []float64, period, offset int) float64 {
	if period <= 0 {
		return 0
	}

	sum := 0.0
	for i := offset; i < offset+period && i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}

// EMA returns an exponential moving average seeded at the bar `offset`
// positions back, with smoothing factor alpha = 2/(period+1), folded forward
// across the next `period` bars or however many remain.
func EMA(closes []float64, period, offset int) float64 {
	if offset >= len(closes) || period <= 0 {
		return 0
	}

	alpha := 2.0 / float64(period+1)
	ema := closes[offset]
	for i := offset + 1; i < offset+period && i < len(closes); i++ {
		ema = closes[i]*alpha + ema*(1-alpha)
	}
	return ema
}

// MACD returns fast EMA minus slow EMA evaluated `offset` bars back.
func MACD(closes []float64, fastPeriod, slowPeriod, offset int) float64 {
	return EMA(closes, fastPeriod, offset) - EMA(closes, slowPeriod, offset)
}

// SignalLine returns the smoothed signal line for a most-recent-first MACD
// series: an EMA of the MACD values over signalPeriod bars, evaluated
// `offset` bars back.
func SignalLine(macdSeries []float64, signalPeriod, offset int) float64 {
	return EMA(macdSeries, signalPeriod, offset)
}

// RSI converts the average-gain/average-loss ratio over `period` bars into a
// 0-100 oscillator. It returns a neutral 50 when the series is too short.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) <= period {
		return rsiNeutral
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i-1] - closes[i]
		if change >= 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rs := avgGain / math.Max(avgLoss, minAvgLoss)
	return 100 - (100 / (1 + rs))
}

// StdDev returns the population standard deviation of the `period` most
// recent closes around the supplied mean.
func StdDev(closes []float64, period int, mean float64) float64 {
	if period <= 0 {
		return 0
	}

	variance := 0.0
	for i := 0; i < period && i < len(closes); i++ {
		diff := closes[i] - mean
		variance += diff * diff
	}
	variance /= float64(period)
	return math.Sqrt(variance)
}

// BollingerBands returns the middle (SMA), upper and lower bands for the
// given period and band width in standard deviations.
func BollingerBands(closes []float64, period int, width float64) (middle, upper, lower float64) {
	middle = SMA(closes, period, 0)
	sd := StdDev(closes, period, middle)
	return middle, middle + width*sd, middle - width*sd
}
