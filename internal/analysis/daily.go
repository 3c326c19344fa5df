package analysis

import (
	"math"

	"confidence-engine/internal/candle"
	"confidence-engine/internal/indicators"
)

// Periods for the daily indicator set.
const (
	smaShort     = 7
	smaMid       = 30
	smaLong      = 90
	piFastPeriod = 111
	piSlowPeriod = 350

	bollPeriod     = 20
	bollMultiplier = 2.0

	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	rsiPeriod = 14

	trendPersistDays = 5
	pullbackLowDays  = 30
	slopeWindow      = 10

	// PiBuyThreshold is the absolute-buy bound on the long-horizon ratio.
	PiBuyThreshold = 0.30
)

// DailySeries holds every daily-resolution indicator series. All slices have
// one entry per daily bar.
type DailySeries struct {
	SMA7   []float64
	SMA30  []float64
	SMA90  []float64
	SMA111 []float64
	SMA350 []float64

	// PiRatio is SMA111 / (2 * SMA350); PiBuy flags PiRatio <= 0.30.
	PiRatio []float64
	PiBuy   []bool

	BollLower []float64

	MACDLine   []float64
	MACDSignal []float64
	MACDCross  []bool

	RSI []float64

	// TrendPersist is set once SMA30 > SMA90 and SMA7 > SMA30 have held for
	// 5 consecutive days.
	TrendPersist []bool

	// Pullback flags a touch of the prior day's trailing 30-day low while the
	// 90-day SMA slope is positive.
	Pullback []bool
}

// DeriveDaily computes the full daily indicator set from daily bars.
func DeriveDaily(days []candle.Bar) *DailySeries {
	closes := candle.Closes(days)
	lows := candle.Lows(days)
	n := len(days)

	d := &DailySeries{
		SMA7:   indicators.CalculateSMA(closes, smaShort),
		SMA30:  indicators.CalculateSMA(closes, smaMid),
		SMA90:  indicators.CalculateSMA(closes, smaLong),
		SMA111: indicators.CalculateSMA(closes, piFastPeriod),
		SMA350: indicators.CalculateSMA(closes, piSlowPeriod),
		RSI:    indicators.CalculateRSI(closes, rsiPeriod),
	}

	macd := indicators.CalculateMACD(closes, macdFast, macdSlow, macdSignal)
	d.MACDLine = macd.Line
	d.MACDSignal = macd.Signal
	d.MACDCross = bullishCrosses(macd.Line, macd.Signal)

	sma20 := indicators.CalculateSMA(closes, bollPeriod)
	std20 := indicators.CalculateStdDev(closes, bollPeriod)
	d.BollLower = make([]float64, n)
	for i := 0; i < n; i++ {
		d.BollLower[i] = sma20[i] - bollMultiplier*std20[i]
	}

	d.PiRatio = make([]float64, n)
	d.PiBuy = make([]bool, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(d.SMA350[i]) || d.SMA350[i] == 0 {
			d.PiRatio[i] = math.NaN()
			continue
		}
		d.PiRatio[i] = d.SMA111[i] / (2 * d.SMA350[i])
		d.PiBuy[i] = d.PiRatio[i] <= PiBuyThreshold
	}

	d.TrendPersist = trendPersistence(d.SMA7, d.SMA30, d.SMA90)
	d.Pullback = pullbackInUptrend(lows, d.SMA90)

	return d
}

// bullishCrosses flags bars where the MACD line was at or below the signal on
// the prior bar and is strictly above it on the current bar.
func bullishCrosses(line, signal []float64) []bool {
	out := make([]bool, len(line))
	for i := 1; i < len(line); i++ {
		// NaN comparisons are false, so undefined positions never cross.
		out[i] = line[i-1] <= signal[i-1] && line[i] > signal[i]
	}
	return out
}

// trendPersistence counts consecutive days of the SMA stack condition
// (SMA30 > SMA90 and SMA7 > SMA30), resetting on any miss, and flags the day
// the run reaches 5 and every later day of the run.
func trendPersistence(sma7, sma30, sma90 []float64) []bool {
	out := make([]bool, len(sma7))
	run := 0
	for i := range sma7 {
		if sma30[i] > sma90[i] && sma7[i] > sma30[i] {
			run++
		} else {
			run = 0
		}
		out[i] = run >= trendPersistDays
	}
	return out
}

// pullbackInUptrend flags days whose low touches the prior day's trailing
// 30-day rolling minimum low while the 90-day SMA's 10-day regression slope is
// positive.
func pullbackInUptrend(lows, sma90 []float64) []bool {
	out := make([]bool, len(lows))
	rollingLow := indicators.CalculateRollingMin(lows, pullbackLowDays)
	slope := indicators.CalculateLinRegSlope(sma90, slopeWindow)

	for i := 1; i < len(lows); i++ {
		out[i] = lows[i] <= rollingLow[i-1] && slope[i] > 0
	}
	return out
}
