package analysis

import (
	"fmt"

	"confidence-engine/internal/resample"
)

// ExpandedDaily is the daily indicator set projected back onto the fine row
// grid. Every slice is aligned 1:1 with the fine bar sequence.
type ExpandedDaily struct {
	SMA30  []float64
	SMA90  []float64
	SMA111 []float64

	PiRatio []float64
	PiBuy   []bool

	BollLower []float64

	MACDLine   []float64
	MACDSignal []float64
	MACDCross  []bool

	RSI []float64

	TrendPersist []bool
	Pullback     []bool
}

// ExpandDaily gathers each daily series onto the fine grid through the index
// map produced by the resampler.
func ExpandDaily(d *DailySeries, indexMap resample.IndexMap) (*ExpandedDaily, error) {
	e := &ExpandedDaily{}

	floats := []struct {
		name string
		src  []float64
		dst  *[]float64
	}{
		{"sma30", d.SMA30, &e.SMA30},
		{"sma90", d.SMA90, &e.SMA90},
		{"sma111", d.SMA111, &e.SMA111},
		{"piRatio", d.PiRatio, &e.PiRatio},
		{"bollLower", d.BollLower, &e.BollLower},
		{"macdLine", d.MACDLine, &e.MACDLine},
		{"macdSignal", d.MACDSignal, &e.MACDSignal},
		{"rsi", d.RSI, &e.RSI},
	}
	for _, f := range floats {
		expanded, err := resample.Expand(f.src, indexMap)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", f.name, err)
		}
		*f.dst = expanded
	}

	bools := []struct {
		name string
		src  []bool
		dst  *[]bool
	}{
		{"piBuy", d.PiBuy, &e.PiBuy},
		{"macdCross", d.MACDCross, &e.MACDCross},
		{"trendPersist", d.TrendPersist, &e.TrendPersist},
		{"pullback", d.Pullback, &e.Pullback},
	}
	for _, b := range bools {
		expanded, err := resample.ExpandBool(b.src, indexMap)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", b.name, err)
		}
		*b.dst = expanded
	}

	return e, nil
}
