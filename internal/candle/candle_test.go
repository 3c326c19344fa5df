package candle

import (
	"errors"
	"math"
	"testing"
)

// TestValidateSequence tests the strict-ascending invariant
func TestValidateSequence(t *testing.T) {
	cases := []struct {
		name       string
		timestamps []int64
		wantErr    bool
	}{
		{"empty", nil, false},
		{"single", []int64{1000}, false},
		{"ascending", []int64{1000, 2000, 3000}, false},
		{"duplicate", []int64{1000, 1000}, true},
		{"descending", []int64{2000, 1000}, true},
	}

	for _, tc := range cases {
		bars := make([]Bar, len(tc.timestamps))
		for i, ts := range tc.timestamps {
			bars[i] = Bar{Timestamp: ts}
		}
		err := ValidateSequence(bars)
		if tc.wantErr && !errors.Is(err, ErrNotAscending) {
			t.Errorf("%s: expected ErrNotAscending, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

// TestColumnExtractors tests the column views
func TestColumnExtractors(t *testing.T) {
	bars := []Bar{
		{High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{High: 3, Low: 1.0, Close: 2.5, Volume: 200},
	}

	if got := Closes(bars); got[0] != 1.5 || got[1] != 2.5 {
		t.Errorf("Closes wrong: %v", got)
	}
	if got := Highs(bars); got[0] != 2 || got[1] != 3 {
		t.Errorf("Highs wrong: %v", got)
	}
	if got := Lows(bars); got[0] != 0.5 || got[1] != 1.0 {
		t.Errorf("Lows wrong: %v", got)
	}
	if got := Volumes(bars); got[0] != 100 || got[1] != 200 {
		t.Errorf("Volumes wrong: %v", got)
	}
	if got := Closes(nil); len(got) != 0 {
		t.Errorf("expected empty slice for nil input, got %v", got)
	}
}

// TestIsFinite tests the numeric guard
func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) || !IsFinite(0) || !IsFinite(-3) {
		t.Error("finite values must pass")
	}
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Error("NaN and Inf must fail")
	}
}
