package domain

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// CheckLabelCounts tallies the labels of a single check column across the
// given stations.
func CheckLabelCounts(stations []*Station, obstype Obstype, check string) (map[Label]int, error) {
	counts := make(map[Label]int)
	for _, st := range stations {
		table, ok := st.Labels(obstype)
		if !ok {
			return nil, fmt.Errorf("station %s has no label table for %s", st.Name, obstype)
		}
		labels, ok := table.Column(check)
		if !ok {
			return nil, fmt.Errorf("station %s: no %q column for %s", st.Name, check, obstype)
		}
		for _, l := range labels {
			counts[l]++
		}
	}
	return counts, nil
}

// QCStats summarizes the per-check verdict frequencies for an obstype as a
// frame with one row per check column and percentage columns for accepted,
// unchecked and rejected verdicts. An empty stationNames slice covers the
// whole dataset.
func (d *Dataset) QCStats(obstype Obstype, stationNames []string) (dataframe.DataFrame, error) {
	stations, err := d.subset(stationNames)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(stations) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no stations to summarize")
	}

	first, ok := stations[0].Labels(obstype)
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("station %s has no label table for %s", stations[0].Name, obstype)
	}

	var (
		checks  []string
		okPct   []float64
		uncPct  []float64
		rejPct  []float64
		missPct []float64
	)
	for _, col := range first.Columns {
		counts, err := CheckLabelCounts(stations, obstype, col.Name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		if total == 0 {
			continue
		}
		var unchecked, rejected, missing int
		for l, n := range counts {
			switch {
			case l.IsOutlier():
				rejected += n
			case l == LabelNotChecked || l == LabelNoObservations:
				unchecked += n
			case l == LabelMissingTimestamp:
				missing += n
			}
		}
		checks = append(checks, col.Name)
		okPct = append(okPct, pct(counts[LabelOK], total))
		uncPct = append(uncPct, pct(unchecked, total))
		rejPct = append(rejPct, pct(rejected, total))
		missPct = append(missPct, pct(missing, total))
	}

	return dataframe.New(
		series.New(checks, series.String, "check"),
		series.New(okPct, series.Float, "ok_pct"),
		series.New(uncPct, series.Float, "not_checked_pct"),
		series.New(rejPct, series.Float, "outlier_pct"),
		series.New(missPct, series.Float, "missing_pct"),
	), nil
}

func pct(n, total int) float64 {
	return 100 * float64(n) / float64(total)
}

// Summary holds descriptive statistics of one obstype over the dataset,
// computed on the current (post-QC) series values.
type Summary struct {
	Obstype Obstype `json:"obstype"`
	Count   int     `json:"count"`
	Absent  int     `json:"absent"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Summarize computes descriptive statistics for an obstype across all
// stations. Absent values are excluded from the moments; an obstype with no
// present values returns NaN moments.
func (d *Dataset) Summarize(obstype Obstype) Summary {
	var values []float64
	absent := 0
	for _, st := range d.stations {
		s, ok := st.Series(obstype)
		if !ok {
			continue
		}
		for _, v := range s.Values {
			if IsAbsent(v) {
				absent++
				continue
			}
			values = append(values, v)
		}
	}

	sum := Summary{
		Obstype: obstype,
		Count:   len(values),
		Absent:  absent,
		Mean:    math.NaN(),
		StdDev:  math.NaN(),
		Min:     math.NaN(),
		Max:     math.NaN(),
	}
	if len(values) == 0 {
		return sum
	}
	sum.Mean = stat.Mean(values, nil)
	sum.StdDev = stat.StdDev(values, nil)
	sum.Min, sum.Max = values[0], values[0]
	for _, v := range values[1:] {
		if v < sum.Min {
			sum.Min = v
		}
		if v > sum.Max {
			sum.Max = v
		}
	}
	return sum
}
