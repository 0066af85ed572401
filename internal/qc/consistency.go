package qc

import (
	"fmt"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Consistency rejects a temperature value when the simultaneous humidity
// reading is physically implausible (outside (min, max]): a sensor reporting
// such humidity cannot be trusted for temperature either. Unlike the other
// checks it consumes two series; it only applies to the temperature obstype.
// Timestamps without a humidity reading are labeled "not checked".
func Consistency(settings Settings) domain.CheckFunc {
	return func(st *domain.Station, obstype domain.Obstype) (domain.Series, []domain.Label, error) {
		if obstype != domain.ObstypeTemp {
			return domain.Series{}, nil, fmt.Errorf("internal consistency check only applies to %s, got %s", domain.ObstypeTemp, obstype)
		}
		temp, ok := st.Series(obstype)
		if !ok {
			return domain.Series{}, nil, fmt.Errorf("no %s series", obstype)
		}
		humidity, ok := st.Series(domain.ObstypeHumidity)
		if !ok {
			return domain.Series{}, nil, fmt.Errorf("no %s series to judge %s against", domain.ObstypeHumidity, obstype)
		}
		if humidity.Len() != temp.Len() {
			return domain.Series{}, nil, fmt.Errorf("%s and %s series not reconciled to the same index", obstype, domain.ObstypeHumidity)
		}

		out := temp.Clone()
		labels := make([]domain.Label, out.Len())
		for i, v := range temp.Values {
			if ignored(v, settings.IgnoreValue) {
				labels[i] = domain.LabelNotChecked
				continue
			}
			h := humidity.Values[i]
			if domain.IsAbsent(h) {
				labels[i] = domain.LabelNotChecked
				continue
			}
			if h <= settings.Consistency.HumidityMin || h > settings.Consistency.HumidityMax {
				labels[i] = domain.LabelConsistencyOutlier
				out.Values[i] = settings.ReplaceValue
				continue
			}
			labels[i] = domain.LabelOK
		}
		return out, labels, nil
	}
}
