package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Station owns one observation series and one label table per obstype, plus
// the static metadata resolved during ingestion. Stations are created
// wholesale by BuildDataset and replaced wholesale on re-ingestion.
type Station struct {
	Name     string
	Network  string
	Lat      float64 // NaN when unknown
	Lon      float64 // NaN when unknown
	CallName string
	Location string

	// Landcover is the land-cover class resolved from (Lat, Lon) before QC.
	// Static once set; never mutated by checks.
	Landcover string

	obs    map[Obstype]Series
	labels map[Obstype]*LabelTable
}

// NewStation creates an empty station for the given network.
func NewStation(name, network string) *Station {
	return &Station{
		Name:    name,
		Network: network,
		Lat:     math.NaN(),
		Lon:     math.NaN(),
		obs:     make(map[Obstype]Series),
		labels:  make(map[Obstype]*LabelTable),
	}
}

// SetSeries installs the observation series for an obstype.
func (st *Station) SetSeries(obstype Obstype, s Series) {
	st.obs[obstype] = s
}

// Series returns the current (possibly QC-replaced) series for an obstype.
func (st *Station) Series(obstype Obstype) (Series, bool) {
	s, ok := st.obs[obstype]
	return s, ok
}

// Labels returns the label table for an obstype. The table exists once the
// station's timestamps have been reconciled.
func (st *Station) Labels(obstype Obstype) (*LabelTable, bool) {
	t, ok := st.labels[obstype]
	return t, ok
}

// Obstypes returns the obstypes this station holds data for, in canonical
// order.
func (st *Station) Obstypes() []Obstype {
	var out []Obstype
	for _, ot := range AllObstypes {
		if _, ok := st.obs[ot]; ok {
			out = append(out, ot)
		}
	}
	return out
}

// HasCoordinates reports whether both latitude and longitude are known.
func (st *Station) HasCoordinates() bool {
	return !math.IsNaN(st.Lat) && !math.IsNaN(st.Lon)
}

// TimeRange returns the first and last timestamp over all obstype series.
func (st *Station) TimeRange() (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, s := range st.obs {
		if s.IsEmpty() {
			continue
		}
		if !found || s.Times[0].Before(start) {
			start = s.Times[0]
		}
		if !found || s.Times[s.Len()-1].After(end) {
			end = s.Times[s.Len()-1]
		}
		found = true
	}
	return start, end, found
}

// DropDuplicateTimestamps removes repeated timestamps from every obstype
// series, keeping the first occurrence. It returns the number of rows
// dropped and must run before ReconcileTimestamps so frequency inference is
// meaningful.
func (st *Station) DropDuplicateTimestamps() int {
	dropped := 0
	for ot, s := range st.obs {
		deduped, n := s.dropDuplicateTimes()
		st.obs[ot] = deduped
		dropped += n
	}
	return dropped
}

// ReconcileTimestamps infers the station's sampling frequency, densifies
// every obstype series onto the full regular index and initializes the label
// tables with a "status" column ("ok" or "missing timestamp"). Empty
// stations are a no-op. It returns the number of timestamps inserted per
// series.
func (st *Station) ReconcileTimestamps() int {
	index := st.sharedIndex()
	if len(index) == 0 {
		return 0
	}

	full := index
	status := make([]Label, len(index))
	for i := range status {
		status[i] = LabelOK
	}
	if freq, ok := InferFrequency(index); ok {
		full, status = reconcileIndex(index, freq)
	}

	inserted := len(full) - len(index)
	for ot, s := range st.obs {
		dense := reindex(s, full)
		st.obs[ot] = dense
		table := NewLabelTable(dense)
		// The status column is part of every obstype's label table so the
		// final label reflects reconciliation verdicts too.
		_ = table.AppendColumn("status", status)
		st.labels[ot] = table
	}
	return inserted
}

// MarkNoObservations initializes an all-"no observations" label table for an
// obstype the station's network never reports. The table uses the station's
// reconciled index and an all-absent series.
func (st *Station) MarkNoObservations(obstype Obstype) {
	index := st.sharedIndex()
	if len(index) == 0 {
		return
	}
	if _, ok := st.obs[obstype]; ok {
		return
	}
	s := reindex(Series{}, index)
	st.obs[obstype] = s
	table := NewLabelTable(s)
	col := make([]Label, len(index))
	for i := range col {
		col[i] = LabelNoObservations
	}
	_ = table.AppendColumn("status", col)
	st.labels[obstype] = table
}

// sharedIndex returns the timestamp index shared by the station's series.
// Series ingested from the same rows carry identical indexes; the union is
// taken to stay safe if an adapter ever produces ragged input.
func (st *Station) sharedIndex() []time.Time {
	seen := make(map[time.Time]struct{})
	var index []time.Time
	for _, ot := range AllObstypes {
		s, ok := st.obs[ot]
		if !ok {
			continue
		}
		for _, ts := range s.Times {
			if _, dup := seen[ts]; dup {
				continue
			}
			seen[ts] = struct{}{}
			index = append(index, ts)
		}
	}
	sort.Slice(index, func(a, b int) bool { return index[a].Before(index[b]) })
	return index
}

// CheckFunc is one quality-control check: a pure function over a station's
// current series for an obstype, returning the (possibly modified) series
// and one label per timestamp. Implementations must not mutate the station.
type CheckFunc func(st *Station, obstype Obstype) (Series, []Label, error)

// NamedCheck pairs a check implementation with the label-column name it
// writes under.
type NamedCheck struct {
	Name string
	Fn   CheckFunc
}

// ApplyCheck runs a check on the station's series for obstype, swaps in the
// returned series and appends the returned label column. Re-running a check
// is not deduplicated; avoiding repeated application is the caller's
// responsibility (a second application fails on the duplicate column name).
func (st *Station) ApplyCheck(name string, obstype Obstype, fn CheckFunc) error {
	if _, ok := st.obs[obstype]; !ok {
		return fmt.Errorf("station %s has no %s series", st.Name, obstype)
	}
	table, ok := st.labels[obstype]
	if !ok {
		return fmt.Errorf("station %s: timestamps not reconciled for %s", st.Name, obstype)
	}

	updated, labels, err := fn(st, obstype)
	if err != nil {
		return err
	}
	if err := table.AppendColumn(name, labels); err != nil {
		return err
	}
	st.obs[obstype] = updated
	return nil
}

// FinalLabels reduces the station's label table for an obstype to one final
// label per timestamp.
func (st *Station) FinalLabels(obstype Obstype, codes LabelCodes) ([]Label, error) {
	table, ok := st.labels[obstype]
	if !ok {
		return nil, fmt.Errorf("station %s has no label table for %s", st.Name, obstype)
	}
	return ReduceLabels(table, codes)
}
