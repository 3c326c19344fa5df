package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"confidence-engine/internal/candle"
)

// Column headers recognized in input files. The auxiliary z-score column is
// optional; everything else is required.
const (
	colTimestamp = "timestamp"
	colOpen      = "open"
	colHigh      = "high"
	colLow       = "low"
	colClose     = "close"
	colVolume    = "volume"
	colMvrvZ     = "mvrv_z"
)

// Result is a parsed bar sequence plus the optional auxiliary z-score series.
// MvrvZ is nil when the input has no such column, otherwise it has one entry
// per bar with NaN for blank cells.
type Result struct {
	Bars  []candle.Bar
	MvrvZ []float64
}

// LoadFile reads a CSV file of OHLCV bars
func LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return res, nil
}

// Load parses CSV bar data from a reader. The first row must be a header
// naming at least timestamp, open, high, low, close and volume in any order.
// Rows must be sorted by timestamp; duplicate timestamps keep the last row.
func Load(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTimestamp, colOpen, colHigh, colLow, colClose, colVolume} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	zIdx, hasZ := cols[colMvrvZ]

	var bars []candle.Bar
	var mvrvZ []float64
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := strconv.ParseInt(strings.TrimSpace(record[cols[colTimestamp]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad timestamp: %w", line, err)
		}

		bar := candle.Bar{Timestamp: ts}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{colOpen, &bar.Open},
			{colHigh, &bar.High},
			{colLow, &bar.Low},
			{colClose, &bar.Close},
			{colVolume, &bar.Volume},
		} {
			v, err := parseCell(record[cols[f.col]])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, f.col, err)
			}
			*f.dst = v
		}

		z := math.NaN()
		if hasZ {
			if zIdx >= len(record) {
				return nil, fmt.Errorf("line %d: short record", line)
			}
			z, err = parseCell(record[zIdx])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, colMvrvZ, err)
			}
		}

		if n := len(bars); n > 0 && bar.Timestamp <= bars[n-1].Timestamp {
			if bar.Timestamp == bars[n-1].Timestamp {
				// Duplicate timestamp, last row wins
				bars[n-1] = bar
				if hasZ {
					mvrvZ[n-1] = z
				}
				continue
			}
			return nil, fmt.Errorf("line %d: %w: timestamp %d after %d",
				line, candle.ErrNotAscending, bar.Timestamp, bars[n-1].Timestamp)
		}

		bars = append(bars, bar)
		if hasZ {
			mvrvZ = append(mvrvZ, z)
		}
	}

	return &Result{Bars: bars, MvrvZ: mvrvZ}, nil
}

// parseCell parses a numeric cell; blank cells become NaN
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
