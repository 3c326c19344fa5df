package signal

import (
	"fmt"
	"math"
)

// Confidence caps. The blended cap sits strictly below the absolute cap so an
// absolute trigger stays distinguishable from a perfect weighted blend.
const (
	AbsoluteCap = 100.0
	BlendedCap  = 99.9
)

// RSI band bounds, evaluated as mutually exclusive tiers (first match wins).
const (
	rsiTier10 = 10.0
	rsiTier20 = 20.0
	rsiTier30 = 30.0
)

// piDeepThreshold is the experimental deep long-horizon-ratio bound.
const piDeepThreshold = 0.125

// maxComponentWeight bounds every user-tunable scoring weight.
const maxComponentWeight = 5.0

// ScoreWeights holds the named weight of each scoring component. It is a
// value: callers may change it between runs but a scoring pass never mutates
// it.
type ScoreWeights struct {
	Bollinger float64 `json:"bollinger" yaml:"bollinger"`
	MACD      float64 `json:"macd" yaml:"macd"`
	VSA       float64 `json:"vsa" yaml:"vsa"`
	SMAStack  float64 `json:"smaStack" yaml:"sma_stack"`
	PrevLowUp float64 `json:"prevLowUp" yaml:"prev_low_up"`
	RSI10     float64 `json:"rsi10" yaml:"rsi10"`
	RSI20     float64 `json:"rsi20" yaml:"rsi20"`
	RSI30     float64 `json:"rsi30" yaml:"rsi30"`
	PiDeep    float64 `json:"piDeep" yaml:"pi_deep"`
}

// DefaultScoreWeights returns the canonical component weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Bollinger: 1.0,
		MACD:      1.0,
		VSA:       1.5,
		SMAStack:  1.0,
		PrevLowUp: 1.0,
		RSI10:     1.5,
		RSI20:     1.0,
		RSI30:     0.5,
		PiDeep:    0.5,
	}
}

// Validate rejects negative or out-of-range weights. Weights are accepted in
// [0, 5].
func (w ScoreWeights) Validate() error {
	named := map[string]float64{
		"bollinger": w.Bollinger,
		"macd":      w.MACD,
		"vsa":       w.VSA,
		"smaStack":  w.SMAStack,
		"prevLowUp": w.PrevLowUp,
		"rsi10":     w.RSI10,
		"rsi20":     w.RSI20,
		"rsi30":     w.RSI30,
		"piDeep":    w.PiDeep,
	}
	for name, v := range named {
		if math.IsNaN(v) || v < 0 || v > maxComponentWeight {
			return fmt.Errorf("score weight %q must be in [0, %g], got %f", name, maxComponentWeight, v)
		}
	}
	return nil
}

// BarScore is the confidence of one bar with its per-component breakdown.
// Contributions is nil when an absolute override fired.
type BarScore struct {
	Confidence    float64            `json:"confidence"`
	Absolute      bool               `json:"absolute"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// ScoreBar blends the assembled signals at index i into one bounded
// confidence value. Either absolute-override flag short-circuits to the
// absolute cap with no breakdown.
func ScoreBar(a *Assembled, i int, w ScoreWeights) BarScore {
	if a.PiBuy[i] || a.MvrvBuy[i] {
		return BarScore{Confidence: AbsoluteCap, Absolute: true}
	}

	components := []struct {
		name   string
		weight float64
		active bool
	}{
		{"bollinger", w.Bollinger, a.BollTouch[i]},
		{"macd", w.MACD, a.MACDCross[i]},
		{"vsa", w.VSA, a.VsaActive[i]},
		{"smaStack", w.SMAStack, a.TrendPersist[i]},
		{"prevLowUp", w.PrevLowUp, a.Pullback[i]},
		{"rsi10", w.RSI10, a.RSI[i] <= rsiTier10},
		{"rsi20", w.RSI20, a.RSI[i] > rsiTier10 && a.RSI[i] <= rsiTier20},
		{"rsi30", w.RSI30, a.RSI[i] > rsiTier20 && a.RSI[i] <= rsiTier30},
		{"piDeep", w.PiDeep, a.PiRatio[i] < piDeepThreshold},
	}

	raw := 0.0
	maxPossible := 0.0
	contributions := make(map[string]float64)
	for _, c := range components {
		maxPossible += c.weight
		if c.active {
			raw += c.weight
			contributions[c.name] = c.weight
		}
	}

	if maxPossible == 0 {
		return BarScore{Confidence: 0, Contributions: contributions}
	}

	confidence := raw / maxPossible * BlendedCap
	if confidence > BlendedCap {
		confidence = BlendedCap
	}
	return BarScore{Confidence: confidence, Contributions: contributions}
}

// ScoreSeries scores every bar, returning the confidence series and the
// per-bar breakdowns.
func ScoreSeries(a *Assembled, w ScoreWeights) ([]float64, []BarScore) {
	n := len(a.BollTouch)
	confidence := make([]float64, n)
	scores := make([]BarScore, n)
	for i := 0; i < n; i++ {
		scores[i] = ScoreBar(a, i, w)
		confidence[i] = scores[i].Confidence
	}
	return confidence, scores
}
