package domain

import (
	"time"
)

// InferFrequency returns the dominant sampling interval of a sorted
// timestamp index: the most frequent delta between consecutive timestamps,
// ties broken by the first-encountered delta. It reports false when fewer
// than two timestamps are available.
func InferFrequency(times []time.Time) (time.Duration, bool) {
	if len(times) < 2 {
		return 0, false
	}
	counts := make(map[time.Duration]int)
	var order []time.Duration
	for i := 1; i < len(times); i++ {
		d := times[i].Sub(times[i-1])
		if _, seen := counts[d]; !seen {
			order = append(order, d)
		}
		counts[d]++
	}
	best := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	if best <= 0 {
		return 0, false
	}
	return best, true
}

// reconcileIndex densifies a sorted, deduplicated timestamp index at the
// given frequency. It returns the full regular index plus a status label per
// entry: "ok" for originally-present timestamps, "missing timestamp" for
// inserted ones.
func reconcileIndex(times []time.Time, freq time.Duration) ([]time.Time, []Label) {
	present := make(map[time.Time]struct{}, len(times))
	for _, ts := range times {
		present[ts] = struct{}{}
	}

	var full []time.Time
	var status []Label
	last := times[len(times)-1]
	for ts := times[0]; !ts.After(last); ts = ts.Add(freq) {
		full = append(full, ts)
		if _, ok := present[ts]; ok {
			status = append(status, LabelOK)
		} else {
			status = append(status, LabelMissingTimestamp)
		}
	}
	// Off-grid originals are kept so reconciliation never loses observations.
	for _, ts := range times {
		if !onGrid(ts, times[0], freq) {
			full, status = insertSorted(full, status, ts)
		}
	}
	return full, status
}

func onGrid(ts, start time.Time, freq time.Duration) bool {
	d := ts.Sub(start)
	return d >= 0 && d%freq == 0
}

func insertSorted(full []time.Time, status []Label, ts time.Time) ([]time.Time, []Label) {
	i := 0
	for i < len(full) && full[i].Before(ts) {
		i++
	}
	if i < len(full) && full[i].Equal(ts) {
		return full, status
	}
	full = append(full, time.Time{})
	copy(full[i+1:], full[i:])
	full[i] = ts
	status = append(status, "")
	copy(status[i+1:], status[i:])
	status[i] = LabelOK
	return full, status
}

// reindex projects a series onto a new timestamp index, filling timestamps
// the series does not cover with the absent marker.
func reindex(s Series, index []time.Time) Series {
	byTime := make(map[time.Time]float64, s.Len())
	for i, ts := range s.Times {
		byTime[ts] = s.Values[i]
	}
	out := Series{
		Times:  make([]time.Time, len(index)),
		Values: make([]float64, len(index)),
	}
	for i, ts := range index {
		out.Times[i] = ts
		if v, ok := byTime[ts]; ok {
			out.Values[i] = v
		} else {
			out.Values[i] = Absent()
		}
	}
	return out
}
