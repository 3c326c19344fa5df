package analysis

import (
	"math"
	"testing"

	"confidence-engine/internal/candle"
	"confidence-engine/internal/resample"
)

const dayMs = int64(24 * 60 * 60 * 1000)

func dailyBars(closes []float64) []candle.Bar {
	bars := make([]candle.Bar, len(closes))
	for i, c := range closes {
		bars[i] = candle.Bar{
			Timestamp: int64(i) * dayMs,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

// TestDeriveDailyTotality tests that every derived series matches the input
// length
func TestDeriveDailyTotality(t *testing.T) {
	bars := dailyBars(make([]float64, 40))
	d := DeriveDaily(bars)

	series := map[string]int{
		"sma7":         len(d.SMA7),
		"sma350":       len(d.SMA350),
		"piRatio":      len(d.PiRatio),
		"bollLower":    len(d.BollLower),
		"macdLine":     len(d.MACDLine),
		"macdCross":    len(d.MACDCross),
		"rsi":          len(d.RSI),
		"trendPersist": len(d.TrendPersist),
		"pullback":     len(d.Pullback),
	}
	for name, n := range series {
		if n != len(bars) {
			t.Errorf("%s: expected length %d, got %d", name, len(bars), n)
		}
	}
}

// TestTrendPersistence tests the 5-day run-length rule with a reset
func TestTrendPersistence(t *testing.T) {
	sma7 := []float64{3, 3, 3, 3, 3, 1, 3, 3, 3, 3, 3, 3}
	sma30 := []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}
	sma90 := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	flags := trendPersistence(sma7, sma30, sma90)

	if flags[3] {
		t.Error("flag must not set before the run reaches 5 days")
	}
	if !flags[4] {
		t.Error("flag must set on the 5th consecutive day")
	}
	if flags[5] {
		t.Error("a broken condition must reset the run")
	}
	if flags[9] {
		t.Error("run restarted at day 6; day 9 is only its 4th day")
	}
	if !flags[10] {
		t.Error("flag must set once the new run reaches 5 days")
	}
}

// TestPiRatio tests the long-horizon ratio and its absolute-buy flag
func TestPiRatio(t *testing.T) {
	// 400 days at a constant price: SMA111 == SMA350 == price, ratio 0.5.
	closes := make([]float64, 400)
	for i := range closes {
		closes[i] = 100
	}
	d := DeriveDaily(dailyBars(closes))

	last := len(closes) - 1
	if !math.IsNaN(d.PiRatio[100]) {
		t.Error("ratio must be NaN while SMA350 is undefined")
	}
	if math.Abs(d.PiRatio[last]-0.5) > 1e-9 {
		t.Errorf("expected ratio 0.5 on a flat series, got %f", d.PiRatio[last])
	}
	if d.PiBuy[last] {
		t.Error("ratio 0.5 must not trigger the absolute-buy flag")
	}
}

// TestBullishCross tests the prior-at-or-below, current-above rule
func TestBullishCross(t *testing.T) {
	line := []float64{-1, 0, 1, 2, 1}
	signal := []float64{0, 0, 0, 0, 2}

	crosses := bullishCrosses(line, signal)

	if crosses[0] {
		t.Error("index 0 has no prior bar and can never cross")
	}
	if crosses[1] {
		t.Error("equal to signal is not a cross")
	}
	if !crosses[2] {
		t.Error("rising strictly above the signal after being at it must cross")
	}
	if crosses[3] {
		t.Error("already above on the prior bar is not a cross")
	}
}

// TestPullbackInUptrend tests the rolling-low touch gated by the SMA slope
func TestPullbackInUptrend(t *testing.T) {
	n := 30
	lows := make([]float64, n)
	sma90 := make([]float64, n)
	for i := range lows {
		lows[i] = 100 + float64(i)
		sma90[i] = 50 + float64(i) // positive slope throughout
	}
	// Day 25 dips to the prior trailing low.
	lows[25] = 99

	flags := pullbackInUptrend(lows, sma90)

	if !flags[25] {
		t.Error("a dip to the prior rolling low in an uptrend must flag")
	}
	if flags[24] {
		t.Error("rising lows above the trailing minimum must not flag")
	}
}

// TestExpandDaily tests projection of the daily set onto the fine grid
func TestExpandDaily(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	d := DeriveDaily(dailyBars(closes))

	// Three fine rows per day.
	indexMap := make(resample.IndexMap, 90)
	for i := range indexMap {
		indexMap[i] = i / 3
	}

	e, err := ExpandDaily(d, indexMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.RSI) != 90 {
		t.Fatalf("expected 90 fine rows, got %d", len(e.RSI))
	}
	for i := range indexMap {
		want := d.SMA30[indexMap[i]]
		got := e.SMA30[i]
		if math.IsNaN(want) != math.IsNaN(got) || (!math.IsNaN(want) && want != got) {
			t.Errorf("row %d: expected daily value %f, got %f", i, want, got)
		}
	}

	// A truncated daily series makes the map invalid: contract violation.
	short := &DailySeries{
		SMA7: d.SMA7, SMA30: d.SMA30[:10], SMA90: d.SMA90, SMA111: d.SMA111,
		SMA350: d.SMA350, PiRatio: d.PiRatio, PiBuy: d.PiBuy,
		BollLower: d.BollLower, MACDLine: d.MACDLine, MACDSignal: d.MACDSignal,
		MACDCross: d.MACDCross, RSI: d.RSI, TrendPersist: d.TrendPersist,
		Pullback: d.Pullback,
	}
	if _, err := ExpandDaily(short, indexMap); err == nil {
		t.Error("expected contract-violation error for an out-of-range map")
	}
}
