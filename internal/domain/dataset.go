package domain

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"log/slog"
)

// Dataset owns the ordered station collection and the combined tabular
// projection over all stations. The projection is a cache: always
// reconstructible from the stations and rebuilt explicitly after any
// operation that mutates station-level data.
type Dataset struct {
	stations []*Station
	obstypes []Obstype
	combined dataframe.DataFrame
}

// Stations returns the stations in ingestion order.
func (d *Dataset) Stations() []*Station { return d.stations }

// Obstypes returns the obstypes present in the ingested data, in canonical
// order.
func (d *Dataset) Obstypes() []Obstype { return d.obstypes }

// GetStation extracts a station by name.
func (d *Dataset) GetStation(name string) (*Station, bool) {
	for _, st := range d.stations {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// TimeRange returns the overall observation period of the dataset.
func (d *Dataset) TimeRange() (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, st := range d.stations {
		s, e, ok := st.TimeRange()
		if !ok {
			continue
		}
		if !found || s.Before(start) {
			start = s
		}
		if !found || e.After(end) {
			end = e
		}
		found = true
	}
	return start, end, found
}

// ApplyQualityControl applies the given checks to every station's series for
// obstype, check-major/station-minor: every station completes check k before
// any station starts check k+1. Per-station check errors are non-fatal; the
// station is skipped for that check and processing continues. The combined
// projection is rebuilt afterwards.
func (d *Dataset) ApplyQualityControl(obstype Obstype, checks []NamedCheck, logger *slog.Logger) {
	for _, chk := range checks {
		logger.Info("applying check on all stations", "check", chk.Name, "obstype", obstype)
		for _, st := range d.stations {
			if err := st.ApplyCheck(chk.Name, obstype, chk.Fn); err != nil {
				logger.Warn("check skipped for station",
					"check", chk.Name,
					"station", st.Name,
					"obstype", obstype,
					"error", err,
				)
			}
		}
	}
	d.RebuildCombined()
}

// Combined returns the combined tabular projection: every station's series
// concatenated, one row per (timestamp, station), with static metadata
// repeated per row.
func (d *Dataset) Combined() dataframe.DataFrame { return d.combined }

// RebuildCombined reconstructs the combined projection from the stations.
func (d *Dataset) RebuildCombined() {
	var (
		datetimes []string
		names     []string
		networks  []string
		lats      []float64
		lons      []float64
		callNames []string
		locations []string
		landcover []string
	)
	obsCols := make(map[Obstype][]float64, len(d.obstypes))

	for _, st := range d.stations {
		index := st.sharedIndex()
		for i, ts := range index {
			datetimes = append(datetimes, ts.UTC().Format(time.RFC3339))
			names = append(names, st.Name)
			networks = append(networks, st.Network)
			lats = append(lats, st.Lat)
			lons = append(lons, st.Lon)
			callNames = append(callNames, st.CallName)
			locations = append(locations, st.Location)
			landcover = append(landcover, st.Landcover)
			for _, ot := range d.obstypes {
				v := Absent()
				if s, ok := st.obs[ot]; ok && i < s.Len() {
					v = s.Values[i]
				}
				obsCols[ot] = append(obsCols[ot], v)
			}
		}
	}

	cols := []series.Series{
		series.New(datetimes, series.String, "datetime"),
		series.New(names, series.String, "name"),
		series.New(networks, series.String, "network"),
	}
	for _, ot := range d.obstypes {
		cols = append(cols, series.New(obsCols[ot], series.Float, string(ot)))
	}
	cols = append(cols,
		series.New(lats, series.Float, "lat"),
		series.New(lons, series.Float, "lon"),
		series.New(callNames, series.String, "call_name"),
		series.New(locations, series.String, "location"),
		series.New(landcover, series.String, "lcz"),
	)
	d.combined = dataframe.New(cols...)
}

// subset resolves a station-name subset, defaulting to all stations.
func (d *Dataset) subset(names []string) ([]*Station, error) {
	if len(names) == 0 {
		return d.stations, nil
	}
	var out []*Station
	for _, name := range names {
		st, ok := d.GetStation(name)
		if !ok {
			return nil, fmt.Errorf("station %q not found in dataset", name)
		}
		out = append(out, st)
	}
	return out, nil
}
