package resample

import (
	"fmt"

	"confidence-engine/internal/candle"
)

const dayMs = int64(24 * 60 * 60 * 1000)

// IndexMap maps each fine-grained row index to its coarse bucket index. It is
// always the same length as the fine bar sequence, non-decreasing, and starts
// at 0.
type IndexMap []int

// ToDaily folds a fine-grained bar sequence into UTC calendar-day buckets.
// Open is the first bar's open in the bucket, close the last bar's close,
// high/low the bucket extrema, volume the sum. The bucket timestamp is the UTC
// midnight opening the day.
func ToDaily(bars []candle.Bar) ([]candle.Bar, IndexMap) {
	return fold(bars, dayMs)
}

// ToBucket folds a fine-grained bar sequence into fixed-width buckets of
// widthMs milliseconds, with the same aggregation rules as ToDaily. Extra
// per-row series are merged by taking the value aligned to the bucket's last
// contributing row.
func ToBucket(bars []candle.Bar, widthMs int64, extras map[string][]float64) ([]candle.Bar, map[string][]float64, IndexMap) {
	buckets, indexMap := fold(bars, widthMs)

	merged := make(map[string][]float64, len(extras))
	for name, series := range extras {
		out := make([]float64, len(buckets))
		for i, v := range series {
			if i >= len(indexMap) {
				break
			}
			// Later rows in the same bucket overwrite earlier ones, leaving
			// the last known value.
			out[indexMap[i]] = v
		}
		merged[name] = out
	}

	return buckets, merged, indexMap
}

// fold buckets bars by floor-division of the timestamp by the bucket width. A
// bucket is closed when a bar with a different bucket key is observed; the
// final open bucket is always flushed.
func fold(bars []candle.Bar, widthMs int64) ([]candle.Bar, IndexMap) {
	indexMap := make(IndexMap, len(bars))
	if len(bars) == 0 {
		return nil, indexMap
	}

	var out []candle.Bar
	currentKey := floorDiv(bars[0].Timestamp, widthMs)
	current := candle.Bar{
		Timestamp: currentKey * widthMs,
		Open:      bars[0].Open,
		High:      bars[0].High,
		Low:       bars[0].Low,
		Close:     bars[0].Close,
		Volume:    bars[0].Volume,
	}
	indexMap[0] = 0

	for i := 1; i < len(bars); i++ {
		key := floorDiv(bars[i].Timestamp, widthMs)
		if key != currentKey {
			out = append(out, current)
			currentKey = key
			current = candle.Bar{
				Timestamp: key * widthMs,
				Open:      bars[i].Open,
				High:      bars[i].High,
				Low:       bars[i].Low,
				Close:     bars[i].Close,
				Volume:    bars[i].Volume,
			}
		} else {
			if bars[i].High > current.High {
				current.High = bars[i].High
			}
			if bars[i].Low < current.Low {
				current.Low = bars[i].Low
			}
			current.Close = bars[i].Close
			current.Volume += bars[i].Volume
		}
		indexMap[i] = len(out)
	}
	out = append(out, current)

	return out, indexMap
}

// Expand projects a coarse series back onto the fine row grid:
// out[i] = series[indexMap[i]]. An index map entry referencing a nonexistent
// bucket is a contract violation and returns an error.
func Expand(series []float64, indexMap IndexMap) ([]float64, error) {
	out := make([]float64, len(indexMap))
	for i, bucket := range indexMap {
		if bucket < 0 || bucket >= len(series) {
			return nil, fmt.Errorf("index map entry %d references bucket %d outside series of length %d", i, bucket, len(series))
		}
		out[i] = series[bucket]
	}
	return out, nil
}

// ExpandBool is Expand for boolean series.
func ExpandBool(series []bool, indexMap IndexMap) ([]bool, error) {
	out := make([]bool, len(indexMap))
	for i, bucket := range indexMap {
		if bucket < 0 || bucket >= len(series) {
			return nil, fmt.Errorf("index map entry %d references bucket %d outside series of length %d", i, bucket, len(series))
		}
		out[i] = series[bucket]
	}
	return out, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
