package vsa

import (
	"fmt"
	"math"

	"confidence-engine/internal/candle"
	"confidence-engine/internal/indicators"
)

// Volume intensity gates relative to the trailing window stats.
const (
	highVolumeSigma     = 0.5  // high: vol >= ma + 0.5*sd
	veryHighVolumeSigma = 1.5  // very high: vol >= ma + 1.5*sd
	lowVolumeRatio      = 0.75 // low: vol <= 0.75*ma
	veryLowVolumeRatio  = 0.55 // very low: vol <= 0.55*ma
)

// Bar shape thresholds.
const (
	narrowBodyRatio     = 0.35 // body/range below this is a narrow bar
	veryNarrowBodyRatio = 0.20
	strongClosePos      = 0.65 // closing in the upper 65% boundary
	upperHalfClosePos   = 0.5
	longLowerWickRatio  = 0.55
)

// DefaultWindow is the trailing volume-normalization window in bars.
const DefaultWindow = 24

// DefaultActivation is the composite score at which the boolean output fires.
const DefaultActivation = 2.6

// Weights holds the fixed contribution of each pattern plus the activation
// threshold. All weights must be non-negative.
type Weights struct {
	Stopping     float64 `json:"stopping" yaml:"stopping"`
	NoSupply     float64 `json:"noSupply" yaml:"no_supply"`
	TestBar      float64 `json:"testBar" yaml:"test_bar"`
	Shakeout     float64 `json:"shakeout" yaml:"shakeout"`
	Climactic    float64 `json:"climactic" yaml:"climactic"`
	Spring       float64 `json:"spring" yaml:"spring"`
	Demand       float64 `json:"demand" yaml:"demand"`
	EffortResult float64 `json:"effortResult" yaml:"effort_result"`

	Activation float64 `json:"activation" yaml:"activation"`
}

// DefaultWeights returns the canonical pattern weights.
func DefaultWeights() Weights {
	return Weights{
		Stopping:     1.8,
		NoSupply:     1.2,
		TestBar:      1.5,
		Shakeout:     2.2,
		Climactic:    2.0,
		Spring:       2.4,
		Demand:       1.0,
		EffortResult: 1.2,
		Activation:   DefaultActivation,
	}
}

// Validate rejects negative weights and a non-positive activation threshold.
func (w Weights) Validate() error {
	named := map[string]float64{
		"stopping":     w.Stopping,
		"noSupply":     w.NoSupply,
		"testBar":      w.TestBar,
		"shakeout":     w.Shakeout,
		"climactic":    w.Climactic,
		"spring":       w.Spring,
		"demand":       w.Demand,
		"effortResult": w.EffortResult,
	}
	for name, v := range named {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("vsa weight %q must be non-negative, got %f", name, v)
		}
	}
	if w.Activation <= 0 || math.IsNaN(w.Activation) {
		return fmt.Errorf("vsa activation must be positive, got %f", w.Activation)
	}
	return nil
}

// Result holds the per-bar pattern flags, the weighted composite score, the
// activation flag, and the volume/range context used to derive them. Every
// slice has one entry per input bar.
type Result struct {
	Stopping     []bool
	NoSupply     []bool
	TestBar      []bool
	Shakeout     []bool
	Climactic    []bool
	Spring       []bool
	Demand       []bool
	EffortResult []bool

	Score  []float64
	Active []bool

	// Context series kept for display collaborators.
	VolumeZ []float64
	ATR     []float64
}

// Detector evaluates the composite volume/price pattern family over a bar
// sequence.
type Detector struct {
	window  int
	weights Weights
}

// NewDetector creates a detector with the given volume window and weights.
func NewDetector(window int, weights Weights) (*Detector, error) {
	if window <= 1 {
		return nil, fmt.Errorf("vsa window must be greater than 1, got %d", window)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Detector{window: window, weights: weights}, nil
}

// Detect evaluates all 8 patterns on every bar. Bar 0 is never evaluated; a
// bar with a non-positive or non-finite range is skipped with zero flags and
// score. The patterns are not mutually exclusive; each active pattern adds its
// weight to the bar's score, and Active fires when the score reaches the
// activation threshold.
func (d *Detector) Detect(bars []candle.Bar) *Result {
	n := len(bars)
	res := &Result{
		Stopping:     make([]bool, n),
		NoSupply:     make([]bool, n),
		TestBar:      make([]bool, n),
		Shakeout:     make([]bool, n),
		Climactic:    make([]bool, n),
		Spring:       make([]bool, n),
		Demand:       make([]bool, n),
		EffortResult: make([]bool, n),
		Score:        make([]float64, n),
		Active:       make([]bool, n),
		VolumeZ:      make([]float64, n),
	}
	if n == 0 {
		res.ATR = nil
		return res
	}

	atrPeriod := int(math.Round(float64(d.window) / 2))
	if atrPeriod < 5 {
		atrPeriod = 5
	}
	res.ATR = indicators.CalculateATR(candle.Highs(bars), candle.Lows(bars), candle.Closes(bars), atrPeriod)

	volumes := candle.Volumes(bars)
	for i := range bars {
		res.VolumeZ[i] = d.volumeZ(volumes, i)
	}

	for i := 1; i < n; i++ {
		d.evaluateBar(bars, volumes, i, res)
	}

	return res
}

// volumeStats returns the mean and population standard deviation of the
// trailing volume window ending at i, clamped at the series start.
func (d *Detector) volumeStats(volumes []float64, i int) (ma, sd float64) {
	start := i - d.window + 1
	if start < 0 {
		start = 0
	}
	count := float64(i - start + 1)

	sum := 0.0
	for j := start; j <= i; j++ {
		sum += volumes[j]
	}
	ma = sum / count

	sumSq := 0.0
	for j := start; j <= i; j++ {
		diff := volumes[j] - ma
		sumSq += diff * diff
	}
	sd = math.Sqrt(sumSq / count)
	return ma, sd
}

// volumeZ normalizes a bar's volume against its trailing window; when the
// window deviation is zero it falls back to the ratio-based substitute
// volume/ma - 1.
func (d *Detector) volumeZ(volumes []float64, i int) float64 {
	ma, sd := d.volumeStats(volumes, i)
	if sd == 0 {
		if ma == 0 {
			return 0
		}
		return volumes[i]/ma - 1
	}
	return (volumes[i] - ma) / sd
}

func (d *Detector) evaluateBar(bars []candle.Bar, volumes []float64, i int, res *Result) {
	b := bars[i]
	rge := b.High - b.Low
	if !(rge > 0) || !candle.IsFinite(rge) {
		return
	}

	refOpen := b.Open
	if !candle.IsFinite(refOpen) {
		refOpen = bars[i-1].Close
	}
	if !candle.IsFinite(b.Close) || !candle.IsFinite(refOpen) {
		return
	}

	body := math.Abs(b.Close - refOpen)
	bodyRatio := body / rge
	closePos := (b.Close - b.Low) / rge
	lowerWick := (math.Min(b.Close, refOpen) - b.Low) / rge
	up := b.Close > refOpen
	down := b.Close < refOpen

	ma, sd := d.volumeStats(volumes, i)
	highVol := b.Volume >= ma+highVolumeSigma*sd
	veryHighVol := b.Volume >= ma+veryHighVolumeSigma*sd
	lowVol := b.Volume <= lowVolumeRatio*ma
	veryLowVol := b.Volume <= veryLowVolumeRatio*ma

	atr := res.ATR[i]
	wideVsATR := !math.IsNaN(atr) && rge > atr
	prevRange := bars[i-1].High - bars[i-1].Low
	wideVsPrev := candle.IsFinite(prevRange) && rge > prevRange

	downtrend := i >= 3 &&
		bars[i-1].Close <= bars[i-2].Close &&
		bars[i-2].Close <= bars[i-3].Close
	madeNewLow := i >= 2 &&
		b.Low < math.Min(bars[i-1].Low, bars[i-2].Low)

	// Stopping volume: heavy buying meets a decline; closes in the upper half
	// of a wide bar.
	res.Stopping[i] = downtrend && veryHighVol && closePos >= upperHalfClosePos && wideVsATR

	// No-supply: narrow down bar in a decline on very low volume.
	res.NoSupply[i] = down && downtrend && bodyRatio < narrowBodyRatio && veryLowVol

	// Successful test: decline, narrow bar closing strong on low volume.
	res.TestBar[i] = downtrend && closePos >= strongClosePos &&
		bodyRatio < narrowBodyRatio && lowVol

	// Shakeout: a new low rejected through a long lower wick on a widening
	// bar with high volume.
	res.Shakeout[i] = madeNewLow && lowerWick > longLowerWickRatio &&
		wideVsPrev && highVol

	// Climactic action: very high volume on a very wide bar in a decline.
	res.Climactic[i] = downtrend && veryHighVol && wideVsPrev && wideVsATR

	// Spring: a dip below recent lows recovered into a strong close without
	// heavy supply.
	res.Spring[i] = madeNewLow && up && closePos >= strongClosePos && lowVol

	// Demand bar: wide up bar closing strong on high volume.
	res.Demand[i] = up && closePos >= strongClosePos && highVol && wideVsATR

	// Effort vs result: very high volume produces almost no net movement on a
	// wide bar (absorption).
	res.EffortResult[i] = veryHighVol && bodyRatio < veryNarrowBodyRatio &&
		!math.IsNaN(atr) && rge >= atr

	score := 0.0
	if res.Stopping[i] {
		score += d.weights.Stopping
	}
	if res.NoSupply[i] {
		score += d.weights.NoSupply
	}
	if res.TestBar[i] {
		score += d.weights.TestBar
	}
	if res.Shakeout[i] {
		score += d.weights.Shakeout
	}
	if res.Climactic[i] {
		score += d.weights.Climactic
	}
	if res.Spring[i] {
		score += d.weights.Spring
	}
	if res.Demand[i] {
		score += d.weights.Demand
	}
	if res.EffortResult[i] {
		score += d.weights.EffortResult
	}

	res.Score[i] = score
	res.Active[i] = score >= d.weights.Activation
}
