package signal

import (
	"confidence-engine/internal/analysis"
	"confidence-engine/internal/candle"
	"confidence-engine/internal/vsa"
)

// Assembled is the merged per-row signal bundle consumed by the scorer. Every
// slice is aligned 1:1 with the fine bar sequence.
type Assembled struct {
	// BollTouch flags a close at or below the expanded daily lower band.
	BollTouch []bool

	RSI        []float64
	MACDLine   []float64
	MACDSignal []float64
	MACDCross  []bool

	SMA30  []float64
	SMA90  []float64
	SMA111 []float64

	TrendPersist []bool
	Pullback     []bool

	PiRatio []float64

	// Absolute-override flags.
	PiBuy   []bool
	MvrvBuy []bool

	VsaActive []bool
	VsaScore  []float64
}

// Assemble merges the expanded daily series, the VSA output, and the
// absolute-override inputs into one structure. mvrvZ may be nil when no
// on-chain auxiliary series is available; the override then never fires. No
// weighting happens here.
func Assemble(bars []candle.Bar, exp *analysis.ExpandedDaily, vsaRes *vsa.Result, mvrvZ []float64) *Assembled {
	n := len(bars)

	a := &Assembled{
		BollTouch:    make([]bool, n),
		RSI:          exp.RSI,
		MACDLine:     exp.MACDLine,
		MACDSignal:   exp.MACDSignal,
		MACDCross:    exp.MACDCross,
		SMA30:        exp.SMA30,
		SMA90:        exp.SMA90,
		SMA111:       exp.SMA111,
		TrendPersist: exp.TrendPersist,
		Pullback:     exp.Pullback,
		PiRatio:      exp.PiRatio,
		PiBuy:        exp.PiBuy,
		MvrvBuy:      make([]bool, n),
		VsaActive:    vsaRes.Active,
		VsaScore:     vsaRes.Score,
	}

	for i := 0; i < n; i++ {
		// NaN band values compare false and never touch.
		a.BollTouch[i] = bars[i].Close <= exp.BollLower[i]
		if mvrvZ != nil && i < len(mvrvZ) {
			a.MvrvBuy[i] = mvrvZ[i] <= 0
		}
	}

	return a
}
