package indicators

import (
	"math"
)

// Every function in this package returns a series with exactly one entry per
// input value. Positions without enough history hold math.NaN().

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// CalculateSMA calculates the Simple Moving Average over a trailing window.
// The output is NaN until `period` values have been seen, and NaN whenever the
// trailing window contains an undefined input.
func CalculateSMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	nanCount := 0
	for i := 0; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			nanCount++
		} else {
			sum += values[i]
		}

		if i >= period {
			old := values[i-period]
			if math.IsNaN(old) {
				nanCount--
			} else {
				sum -= old
			}
		}

		if i >= period-1 && nanCount == 0 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// CalculateEMA calculates the Exponential Moving Average with smoothing
// constant 2/(period+1). It seeds at the first defined input; a NaN input
// carries the previous output forward. Every position from the seed onward is
// defined.
func CalculateEMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}

	k := 2.0 / float64(period+1)
	ema := math.NaN()
	for i, v := range values {
		if math.IsNaN(ema) {
			if !math.IsNaN(v) {
				ema = v
			}
		} else if !math.IsNaN(v) {
			ema = v*k + ema*(1-k)
		}
		// NaN input with a live EMA: previous output is reused as the input,
		// which leaves the EMA unchanged.
		out[i] = ema
	}

	return out
}

// ============================================================================
// VOLATILITY
// ============================================================================

// CalculateStdDev calculates the population standard deviation of the trailing
// window, with deviations taken against the window mean. NaN inputs are
// ignored in both the mean and the variance. NaN until the window is full.
func CalculateStdDev(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		count := 0
		for j := i - period + 1; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				sum += values[j]
				count++
			}
		}
		if count == 0 {
			continue
		}
		mean := sum / float64(count)

		sumSq := 0.0
		for j := i - period + 1; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				diff := values[j] - mean
				sumSq += diff * diff
			}
		}
		out[i] = math.Sqrt(sumSq / float64(count))
	}

	return out
}

// CalculateATR calculates the Average True Range. The first `period` true
// ranges are averaged cumulatively as a seed, after which Wilder smoothing
// applies. A bar with a missing high or low carries the prior true range
// forward; a missing close is replaced with the last defined close.
func CalculateATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if period <= 0 || n < 2 {
		return out
	}

	prevClose := closes[0]
	prevTR := math.NaN()
	atr := math.NaN()

	for i := 1; i < n; i++ {
		var tr float64
		if math.IsNaN(highs[i]) || math.IsNaN(lows[i]) {
			tr = prevTR
		} else {
			tr = highs[i] - lows[i]
			if !math.IsNaN(prevClose) {
				tr = math.Max(tr, math.Abs(highs[i]-prevClose))
				tr = math.Max(tr, math.Abs(lows[i]-prevClose))
			}
		}
		if !math.IsNaN(closes[i]) {
			prevClose = closes[i]
		}
		if math.IsNaN(tr) {
			out[i] = atr
			continue
		}
		prevTR = tr

		if i <= period {
			// Growing simple mean over the first `period` true ranges.
			if math.IsNaN(atr) {
				atr = tr
			} else {
				atr = (atr*float64(i-1) + tr) / float64(i)
			}
		} else {
			atr = (atr*float64(period-1) + tr) / float64(period)
		}
		out[i] = atr
	}

	return out
}

// ============================================================================
// RSI (Relative Strength Index)
// ============================================================================

// CalculateRSI calculates Wilder's Relative Strength Index. Gains and losses
// over the first `period` deltas seed the averages, then the Wilder recurrence
// applies. Zero average loss yields exactly 100.
func CalculateRSI(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	gains := 0.0
	losses := 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ============================================================================
// MACD (Moving Average Convergence Divergence)
// ============================================================================

// MACDResult holds the MACD and signal line series.
type MACDResult struct {
	Line   []float64
	Signal []float64
}

// CalculateMACD calculates the MACD line (fast EMA minus slow EMA) and its
// signal line (EMA of the MACD line). A position is NaN until both the fast
// and slow averages are defined.
func CalculateMACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	fast := CalculateEMA(values, fastPeriod)
	slow := CalculateEMA(values, slowPeriod)

	line := nanSeries(len(values))
	for i := range values {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}

	return MACDResult{
		Line:   line,
		Signal: CalculateEMA(line, signalPeriod),
	}
}

// ============================================================================
// LINEAR REGRESSION
// ============================================================================

// CalculateLinRegSlope calculates the ordinary least-squares slope of
// (index, value) pairs over the trailing window, ignoring NaN values. NaN
// until the window is full or while fewer than 2 valid points are in it.
func CalculateLinRegSlope(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 1 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sumX, sumY, sumXY, sumXX := 0.0, 0.0, 0.0, 0.0
		n := 0.0
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				continue
			}
			x := float64(j)
			sumX += x
			sumY += values[j]
			sumXY += x * values[j]
			sumXX += x * x
			n++
		}
		if n < 2 {
			continue
		}
		denom := n*sumXX - sumX*sumX
		if denom == 0 {
			continue
		}
		out[i] = (n*sumXY - sumX*sumY) / denom
	}

	return out
}

// ============================================================================
// ROLLING EXTREMA
// ============================================================================

// CalculateRollingMin calculates the minimum over the trailing window,
// ignoring NaN values. The window is clamped at the start of the series, so a
// value is produced from the first defined input onward.
func CalculateRollingMin(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 {
		return out
	}

	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		min := math.NaN()
		for j := start; j <= i; j++ {
			if math.IsNaN(values[j]) {
				continue
			}
			if math.IsNaN(min) || values[j] < min {
				min = values[j]
			}
		}
		out[i] = min
	}

	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
