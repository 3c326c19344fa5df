package signal

import (
	"fmt"
	"time"

	"confidence-engine/internal/candle"
)

// BuyEvent is one accepted buy moment. Immutable once produced.
type BuyEvent struct {
	Timestamp     int64              `json:"timestamp"`
	Confidence    float64            `json:"confidence"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// ExtractorConfig tunes the buy-event scan. The three parameters are
// independent of each other.
type ExtractorConfig struct {
	// Threshold is the confidence a rising edge must reach.
	Threshold float64
	// PeakWindow is the forward span within which no strictly greater
	// confidence may occur for a candidate to be accepted.
	PeakWindow time.Duration
	// Cooldown is the minimum elapsed time between two accepted events.
	Cooldown time.Duration
}

// DefaultExtractorConfig returns the canonical extractor tuning for hourly
// input.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Threshold:  50,
		PeakWindow: 24 * time.Hour,
		Cooldown:   72 * time.Hour,
	}
}

// Validate rejects a non-positive threshold and negative durations.
func (c ExtractorConfig) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("extractor threshold must be positive, got %f", c.Threshold)
	}
	if c.PeakWindow < 0 {
		return fmt.Errorf("extractor peak window must not be negative, got %s", c.PeakWindow)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("extractor cooldown must not be negative, got %s", c.Cooldown)
	}
	return nil
}

// ExtractBuyEvents scans the confidence series left to right. A rising edge
// through the threshold opens an episode; the episode's candidate slides
// forward to the highest confidence within the peak window until it is a
// forward-window local maximum (ties do not displace it), so the peak of a
// rising episode is reported rather than every bar crossing the line. The
// candidate is emitted only if the cooldown since the last accepted event has
// elapsed; a candidate rejected by the cooldown does not reset the cooldown
// state and is not retried.
func ExtractBuyEvents(bars []candle.Bar, confidence []float64, scores []BarScore, cfg ExtractorConfig) []BuyEvent {
	var events []BuyEvent
	windowMs := cfg.PeakWindow.Milliseconds()
	cooldownMs := cfg.Cooldown.Milliseconds()

	lastAccepted := int64(0)
	haveAccepted := false

	for i := 1; i < len(confidence); i++ {
		// Rising-edge test. A series that starts at or above the threshold
		// never triggers at its first bar.
		if confidence[i] < cfg.Threshold || confidence[i-1] >= cfg.Threshold {
			continue
		}

		p := peakOfEpisode(bars, confidence, i, windowMs)

		// Cooldown test. The first accepted event has no predecessor and
		// always passes.
		if !haveAccepted || bars[p].Timestamp-lastAccepted >= cooldownMs {
			event := BuyEvent{
				Timestamp:  bars[p].Timestamp,
				Confidence: confidence[p],
			}
			if p < len(scores) {
				event.Contributions = scores[p].Contributions
			}
			events = append(events, event)
			lastAccepted = bars[p].Timestamp
			haveAccepted = true
		}

		// The episode is consumed either way; resume the scan past its peak.
		i = p
	}

	return events
}

// peakOfEpisode slides the candidate forward to the first strictly greater
// confidence inside the forward window, repeating until no later bar within
// the candidate's window exceeds it. An equal value never displaces the
// candidate.
func peakOfEpisode(bars []candle.Bar, confidence []float64, start int, windowMs int64) int {
	p := start
	for {
		q := p
		limit := bars[p].Timestamp + windowMs
		for j := p + 1; j < len(confidence) && bars[j].Timestamp <= limit; j++ {
			if confidence[j] > confidence[q] {
				q = j
			}
		}
		if q == p {
			return p
		}
		p = q
	}
}
