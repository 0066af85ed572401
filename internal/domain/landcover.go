package domain

import (
	"context"
	"log/slog"
)

// Landcover sentinel classes. LandcoverLocationUnknown marks stations that
// cannot be looked up at all; LandcoverUnknown marks lookups that ran but
// resolved nothing.
const (
	LandcoverUnknown         = "unknown"
	LandcoverLocationUnknown = "location unknown"
)

// LandcoverLookup resolves a land-cover class for a coordinate pair.
type LandcoverLookup interface {
	// Lookup returns the land-cover class at the given WGS-84 coordinates.
	Lookup(ctx context.Context, lat, lon float64) (string, error)
}

// EnrichWithLandcover resolves the land-cover class for every station in the
// dataset. If lookup is nil the dataset is returned untouched. Stations
// without coordinates and failed lookups get a sentinel class instead of
// aborting the run (graceful degradation).
func EnrichWithLandcover(ctx context.Context, d *Dataset, lookup LandcoverLookup, logger *slog.Logger) {
	if lookup == nil {
		return
	}

	for _, st := range d.stations {
		if st.Landcover != "" {
			continue
		}
		if !st.HasCoordinates() {
			logger.Warn("landcover lookup skipped, station has no coordinates", "station", st.Name)
			st.Landcover = LandcoverLocationUnknown
			continue
		}

		class, err := lookup.Lookup(ctx, st.Lat, st.Lon)
		if err != nil {
			logger.Warn("landcover lookup failed",
				"station", st.Name,
				"lat", st.Lat,
				"lon", st.Lon,
				"error", err,
			)
			st.Landcover = LandcoverUnknown
			continue
		}
		if class == "" {
			class = LandcoverUnknown
		}
		st.Landcover = class
	}
}
