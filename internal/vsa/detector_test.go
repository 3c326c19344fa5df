package vsa

import (
	"math"
	"testing"

	"confidence-engine/internal/candle"
)

const hourMs = int64(60 * 60 * 1000)

// quietBars builds n quiet bars: flat price, 1.0 range, volume alternating
// 90/110 so the window deviation is non-zero.
func quietBars(n int) []candle.Bar {
	bars := make([]candle.Bar, n)
	for i := range bars {
		vol := 90.0
		if i%2 == 1 {
			vol = 110.0
		}
		bars[i] = candle.Bar{
			Timestamp: int64(i) * hourMs,
			Open:      100,
			High:      100.5,
			Low:       99.5,
			Close:     100,
			Volume:    vol,
		}
	}
	return bars
}

func defaultDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(DefaultWindow, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected detector error: %v", err)
	}
	return d
}

// TestNewDetectorValidation tests configuration-acceptance rejection
func TestNewDetectorValidation(t *testing.T) {
	if _, err := NewDetector(1, DefaultWeights()); err == nil {
		t.Error("expected error for window <= 1")
	}

	bad := DefaultWeights()
	bad.Shakeout = -1
	if _, err := NewDetector(DefaultWindow, bad); err == nil {
		t.Error("expected error for a negative weight")
	}

	noAct := DefaultWeights()
	noAct.Activation = 0
	if _, err := NewDetector(DefaultWindow, noAct); err == nil {
		t.Error("expected error for a non-positive activation")
	}
}

// TestBarZeroNeverEvaluated tests that the first bar carries zero flags
func TestBarZeroNeverEvaluated(t *testing.T) {
	bars := quietBars(30)
	bars[0].Low = 90 // would otherwise look dramatic
	bars[0].Volume = 10000

	res := defaultDetector(t).Detect(bars)

	if res.Score[0] != 0 || res.Active[0] {
		t.Error("bar 0 must never be evaluated")
	}
}

// TestZeroRangeSkipped tests that degenerate bars degrade to zero, not errors
func TestZeroRangeSkipped(t *testing.T) {
	bars := quietBars(30)
	bars[20].High = 100
	bars[20].Low = 100
	bars[20].Volume = 10000

	res := defaultDetector(t).Detect(bars)
	if res.Score[20] != 0 {
		t.Errorf("zero-range bar must score 0, got %f", res.Score[20])
	}
}

// TestShakeoutDetection tests a lone shakeout bar below the activation bound
func TestShakeoutDetection(t *testing.T) {
	bars := quietBars(40)
	// New low rejected through a long lower wick on a widening down bar with
	// high (not climactic) volume.
	bars[30] = candle.Bar{
		Timestamp: bars[30].Timestamp,
		Open:      100.4,
		High:      100.5,
		Low:       98,
		Close:     100.3,
		Volume:    110,
	}

	res := defaultDetector(t).Detect(bars)

	if !res.Shakeout[30] {
		t.Fatal("expected shakeout flag")
	}
	if res.Stopping[30] || res.Climactic[30] || res.EffortResult[30] || res.Spring[30] || res.Demand[30] {
		t.Error("no other pattern should fire on this bar")
	}
	if math.Abs(res.Score[30]-2.2) > 1e-9 {
		t.Errorf("expected score 2.2, got %f", res.Score[30])
	}
	if res.Active[30] {
		t.Error("a lone shakeout (2.2) must not reach the 2.6 activation")
	}
}

// TestShakeoutPlusEffortActivates tests the weighted composite activation
// with only the shakeout and effort-vs-result weights enabled
func TestShakeoutPlusEffortActivates(t *testing.T) {
	weights := Weights{Shakeout: 2.2, EffortResult: 1.2, Activation: 2.6}
	d, err := NewDetector(DefaultWindow, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bars := quietBars(40)
	// Same shakeout geometry, but climactic volume and a tiny body: the
	// effort-vs-result absorption pattern fires alongside the shakeout.
	bars[30] = candle.Bar{
		Timestamp: bars[30].Timestamp,
		Open:      100.4,
		High:      100.5,
		Low:       98,
		Close:     100.3,
		Volume:    500,
	}

	res := d.Detect(bars)

	if !res.Shakeout[30] || !res.EffortResult[30] {
		t.Fatal("expected shakeout and effort-vs-result to fire together")
	}
	if math.Abs(res.Score[30]-3.4) > 1e-9 {
		t.Errorf("expected score 3.4, got %f", res.Score[30])
	}
	if !res.Active[30] {
		t.Error("2.2 + 1.2 = 3.4 must reach the 2.6 activation")
	}
}

// TestNoSupplyDetection tests the narrow low-volume down bar in a decline
func TestNoSupplyDetection(t *testing.T) {
	bars := quietBars(40)
	bars[30] = candle.Bar{
		Timestamp: bars[30].Timestamp,
		Open:      100.2,
		High:      100.5,
		Low:       99.5,
		Close:     100,
		Volume:    50,
	}

	res := defaultDetector(t).Detect(bars)

	if !res.NoSupply[30] {
		t.Error("expected no-supply flag")
	}
	if res.TestBar[30] {
		t.Error("a mid-range close must not qualify as a successful test")
	}
}

// TestSpringDetection tests the recovered dip below recent lows
func TestSpringDetection(t *testing.T) {
	bars := quietBars(40)
	bars[30] = candle.Bar{
		Timestamp: bars[30].Timestamp,
		Open:      100,
		High:      100.5,
		Low:       98,
		Close:     100.3,
		Volume:    70,
	}

	res := defaultDetector(t).Detect(bars)

	if !res.Spring[30] {
		t.Error("expected spring flag on a recovered new low with low volume")
	}
	if res.Shakeout[30] {
		t.Error("low volume must not qualify as a shakeout")
	}
}

// TestDemandBarDetection tests the wide strong-close up bar on high volume
func TestDemandBarDetection(t *testing.T) {
	bars := quietBars(40)
	bars[30] = candle.Bar{
		Timestamp: bars[30].Timestamp,
		Open:      100,
		High:      102.3,
		Low:       99.8,
		Close:     102,
		Volume:    110,
	}

	res := defaultDetector(t).Detect(bars)

	if !res.Demand[30] {
		t.Error("expected demand flag")
	}
	if res.Active[30] {
		t.Error("a lone demand bar (1.0) must not activate")
	}
}

// TestWeightActivationConsistency tests that Active always equals
// Score >= activation across a noisy series
func TestWeightActivationConsistency(t *testing.T) {
	bars := quietBars(120)
	// Inject assorted disturbances.
	for _, i := range []int{30, 45, 60, 75, 90, 105} {
		bars[i].Low -= float64(i%7) * 0.5
		bars[i].Close += float64(i%5)*0.3 - 0.5
		bars[i].Volume *= float64(1 + i%9)
	}

	weights := DefaultWeights()
	res := defaultDetector(t).Detect(bars)

	for i := range bars {
		if res.Active[i] != (res.Score[i] >= weights.Activation) {
			t.Errorf("index %d: Active=%v inconsistent with Score=%f", i, res.Active[i], res.Score[i])
		}
	}
}

// TestVolumeZSubstitute tests the ratio fallback when the window deviation
// is zero
func TestVolumeZSubstitute(t *testing.T) {
	bars := make([]candle.Bar, 30)
	for i := range bars {
		bars[i] = candle.Bar{
			Timestamp: int64(i) * hourMs,
			Open:      100, High: 100.5, Low: 99.5, Close: 100,
			Volume: 100,
		}
	}

	res := defaultDetector(t).Detect(bars)
	// Constant volume: sd is 0 and volume/ma - 1 is 0 everywhere.
	for i, z := range res.VolumeZ {
		if z != 0 {
			t.Errorf("index %d: expected substitute z 0, got %f", i, z)
		}
	}
}

// TestDetectTotality tests the one-entry-per-bar rule and empty input
func TestDetectTotality(t *testing.T) {
	bars := quietBars(10)
	res := defaultDetector(t).Detect(bars)
	if len(res.Score) != 10 || len(res.Active) != 10 || len(res.Shakeout) != 10 {
		t.Error("result series must match input length")
	}

	empty := defaultDetector(t).Detect(nil)
	if len(empty.Score) != 0 {
		t.Error("empty input must produce empty outputs")
	}
}
