package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Absent returns the marker for a missing or invalidated reading.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether v is the absent marker.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// Series is one station's observation values for a single obstype, indexed by
// timestamp. Timestamps are sorted ascending and logically unique once
// DropDuplicateTimestamps has run.
type Series struct {
	Times  []time.Time
	Values []float64
}

// NewSeries builds a Series from parallel slices, copying and sorting them by
// timestamp. The input slices are not retained.
func NewSeries(times []time.Time, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("series length mismatch: %d timestamps, %d values", len(times), len(values))
	}
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]].Before(times[idx[b]]) })

	s := Series{
		Times:  make([]time.Time, len(times)),
		Values: make([]float64, len(values)),
	}
	for i, j := range idx {
		s.Times[i] = times[j]
		s.Values[i] = values[j]
	}
	return s, nil
}

// Len returns the number of observations in the series.
func (s Series) Len() int { return len(s.Times) }

// IsEmpty reports whether the series holds no timestamps at all.
func (s Series) IsEmpty() bool { return len(s.Times) == 0 }

// Clone returns a deep copy. Checks clone before modifying so the pipeline
// stays composable.
func (s Series) Clone() Series {
	out := Series{
		Times:  make([]time.Time, len(s.Times)),
		Values: make([]float64, len(s.Values)),
	}
	copy(out.Times, s.Times)
	copy(out.Values, s.Values)
	return out
}

// AbsentCount returns how many values carry the absent marker.
func (s Series) AbsentCount() int {
	n := 0
	for _, v := range s.Values {
		if IsAbsent(v) {
			n++
		}
	}
	return n
}

// AllAbsent reports whether the series holds no real observation at all.
func (s Series) AllAbsent() bool { return s.AbsentCount() == s.Len() }

// dropDuplicateTimes returns a copy of the series with repeated timestamps
// removed, keeping the first occurrence, plus the number of rows dropped.
func (s Series) dropDuplicateTimes() (Series, int) {
	if s.Len() < 2 {
		return s.Clone(), 0
	}
	out := Series{
		Times:  make([]time.Time, 0, s.Len()),
		Values: make([]float64, 0, s.Len()),
	}
	dropped := 0
	for i := range s.Times {
		if i > 0 && s.Times[i].Equal(out.Times[len(out.Times)-1]) {
			dropped++
			continue
		}
		out.Times = append(out.Times, s.Times[i])
		out.Values = append(out.Values, s.Values[i])
	}
	return out, dropped
}
