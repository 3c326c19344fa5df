package candle

import (
	"errors"
	"math"
)

// Bar represents one OHLCV sample. Timestamp is Unix milliseconds (UTC).
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Errors for bar sequence validation
var (
	ErrNotAscending = errors.New("bar timestamps must be strictly ascending")
	ErrLengthMismatch = errors.New("auxiliary series length does not match bar count")
)

// ValidateSequence checks the ordering invariant: strictly increasing timestamps.
// An empty sequence is valid.
func ValidateSequence(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp <= bars[i-1].Timestamp {
			return ErrNotAscending
		}
	}
	return nil
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high column.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume column.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// IsFinite reports whether v is a usable number (not NaN, not Inf).
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
