package engine

import (
	"fmt"

	"confidence-engine/internal/analysis"
	"confidence-engine/internal/candle"
	"confidence-engine/internal/resample"
	"confidence-engine/internal/signal"
	"confidence-engine/internal/vsa"
)

// Config holds every tunable of one pipeline run. It is treated as a value:
// the engine never mutates it, and re-running with a different Config is a
// fresh pass with no cached state.
type Config struct {
	VsaWindow    int                    `json:"vsaWindow" yaml:"vsa_window"`
	VsaWeights   vsa.Weights            `json:"vsaWeights" yaml:"vsa_weights"`
	ScoreWeights signal.ScoreWeights    `json:"scoreWeights" yaml:"score_weights"`
	Extractor    signal.ExtractorConfig `json:"extractor" yaml:"extractor"`
}

// DefaultConfig returns the canonical tuning.
func DefaultConfig() Config {
	return Config{
		VsaWindow:    vsa.DefaultWindow,
		VsaWeights:   vsa.DefaultWeights(),
		ScoreWeights: signal.DefaultScoreWeights(),
		Extractor:    signal.DefaultExtractorConfig(),
	}
}

// Validate checks every tunable at configuration-acceptance time.
func (c Config) Validate() error {
	if c.VsaWindow <= 1 {
		return fmt.Errorf("vsa window must be greater than 1, got %d", c.VsaWindow)
	}
	if err := c.VsaWeights.Validate(); err != nil {
		return err
	}
	if err := c.ScoreWeights.Validate(); err != nil {
		return err
	}
	return c.Extractor.Validate()
}

// Result bundles everything one run produces: the confidence series, the buy
// events, and the full intermediate series keyed by row index so display
// collaborators can window and slice without recomputation.
type Result struct {
	Bars     []candle.Bar       `json:"bars"`
	Daily    []candle.Bar       `json:"daily"`
	IndexMap resample.IndexMap  `json:"indexMap"`

	DailySeries *analysis.DailySeries   `json:"dailySeries"`
	Expanded    *analysis.ExpandedDaily `json:"expanded"`
	Vsa         *vsa.Result             `json:"vsa"`
	Assembled   *signal.Assembled       `json:"assembled"`

	Confidence []float64         `json:"confidence"`
	Scores     []signal.BarScore `json:"scores"`
	Events     []signal.BuyEvent `json:"events"`
}

// Run executes the full pipeline over a validated bar sequence. mvrvZ is the
// optional per-row on-chain auxiliary series; pass nil when unavailable. The
// run is pure: inputs are never mutated and every output series is newly
// allocated.
func Run(bars []candle.Bar, mvrvZ []float64, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := candle.ValidateSequence(bars); err != nil {
		return nil, err
	}
	if mvrvZ != nil && len(mvrvZ) != len(bars) {
		return nil, candle.ErrLengthMismatch
	}

	// Empty input is valid; every stage below yields empty series for it.
	res := &Result{Bars: bars}

	// Daily branch.
	res.Daily, res.IndexMap = resample.ToDaily(bars)
	res.DailySeries = analysis.DeriveDaily(res.Daily)

	expanded, err := analysis.ExpandDaily(res.DailySeries, res.IndexMap)
	if err != nil {
		return nil, err
	}
	res.Expanded = expanded

	// Fine branch, independent of the daily one.
	detector, err := vsa.NewDetector(cfg.VsaWindow, cfg.VsaWeights)
	if err != nil {
		return nil, err
	}
	res.Vsa = detector.Detect(bars)

	// Merge, score, extract.
	res.Assembled = signal.Assemble(bars, expanded, res.Vsa, mvrvZ)
	res.Confidence, res.Scores = signal.ScoreSeries(res.Assembled, cfg.ScoreWeights)
	res.Events = signal.ExtractBuyEvents(bars, res.Confidence, res.Scores, cfg.Extractor)

	return res, nil
}
