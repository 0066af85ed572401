package domain

import (
	"errors"
	"log/slog"
	"math"
	"time"
)

// IngestRow is one normalized observation record produced by an ingestion
// adapter: all observations of one station at one timestamp plus whatever
// static metadata the source carries. Unknown numeric fields are NaN.
type IngestRow struct {
	Timestamp time.Time
	Name      string
	Network   string
	Lat       float64
	Lon       float64
	CallName  string
	Location  string
	Values    map[Obstype]float64
}

// IngestTable is the normalized multi-station observation table handed to
// BuildDataset. Adapters must not hand over rows without a station name.
type IngestTable []IngestRow

// ErrEmptyDataset is returned when an ingest table holds no rows at all.
// There is no safe partial recovery: the run must abort.
var ErrEmptyDataset = errors.New("dataset is empty")

// BuildDataset groups an ingest table into stations (first-seen order),
// deduplicates and reconciles each station's timestamps, and returns the
// assembled dataset with its combined projection built. Per-station
// anomalies (missing coordinates, missing metadata) are logged and do not
// abort the build.
func BuildDataset(table IngestTable, logger *slog.Logger) (*Dataset, error) {
	if len(table) == 0 {
		return nil, ErrEmptyDataset
	}

	present := presentObstypes(table)

	grouped := make(map[string][]IngestRow)
	var order []string
	for _, row := range table {
		if row.Name == "" {
			logger.Warn("ingest row without station name skipped", "timestamp", row.Timestamp)
			continue
		}
		if _, ok := grouped[row.Name]; !ok {
			order = append(order, row.Name)
		}
		grouped[row.Name] = append(grouped[row.Name], row)
	}
	if len(order) == 0 {
		return nil, ErrEmptyDataset
	}

	ds := &Dataset{obstypes: present}
	for _, name := range order {
		rows := grouped[name]
		st := buildStation(name, rows, present, logger)
		ds.stations = append(ds.stations, st)
	}
	ds.RebuildCombined()
	return ds, nil
}

func buildStation(name string, rows []IngestRow, present []Obstype, logger *slog.Logger) *Station {
	st := NewStation(name, rows[0].Network)

	times := make([]time.Time, len(rows))
	for i, row := range rows {
		times[i] = row.Timestamp
	}
	for _, ot := range present {
		values := make([]float64, len(rows))
		for i, row := range rows {
			if v, ok := row.Values[ot]; ok {
				values[i] = v
			} else {
				values[i] = Absent()
			}
		}
		s, err := NewSeries(times, values)
		if err != nil {
			// Unreachable: times and values are built in lockstep.
			logger.Error("series construction failed", "station", name, "obstype", ot, "error", err)
			continue
		}
		st.SetSeries(ot, s)
	}

	if dropped := st.DropDuplicateTimestamps(); dropped > 0 {
		logger.Warn("duplicate timestamps dropped, first occurrence kept", "station", name, "dropped", dropped)
	}
	if inserted := st.ReconcileTimestamps(); inserted > 0 {
		logger.Warn("missing timestamps filled with absent values", "station", name, "inserted", inserted)
	}
	for _, ot := range AllObstypes {
		if !containsObstype(present, ot) {
			st.MarkNoObservations(ot)
		}
	}

	applyMetadata(st, rows, logger)
	return st
}

// applyMetadata copies static metadata from the first row that carries it
// and warns about missing fields, matching the non-fatal per-station
// anomaly contract.
func applyMetadata(st *Station, rows []IngestRow, logger *slog.Logger) {
	for _, row := range rows {
		if math.IsNaN(st.Lat) && !math.IsNaN(row.Lat) {
			st.Lat = row.Lat
		}
		if math.IsNaN(st.Lon) && !math.IsNaN(row.Lon) {
			st.Lon = row.Lon
		}
		if st.CallName == "" {
			st.CallName = row.CallName
		}
		if st.Location == "" {
			st.Location = row.Location
		}
		if st.Network == "" {
			st.Network = row.Network
		}
	}
	if math.IsNaN(st.Lat) || math.IsNaN(st.Lon) {
		logger.Warn("station has no coordinates", "station", st.Name)
	}
	if st.Network == "" {
		st.Network = "unknown"
		logger.Warn("station has no network, using sentinel", "station", st.Name)
	}
}

// presentObstypes returns the obstypes that occur in at least one row, in
// canonical order.
func presentObstypes(table IngestTable) []Obstype {
	seen := make(map[Obstype]struct{})
	for _, row := range table {
		for ot := range row.Values {
			seen[ot] = struct{}{}
		}
	}
	var out []Obstype
	for _, ot := range AllObstypes {
		if _, ok := seen[ot]; ok {
			out = append(out, ot)
		}
	}
	return out
}

func containsObstype(list []Obstype, ot Obstype) bool {
	for _, o := range list {
		if o == ot {
			return true
		}
	}
	return false
}
