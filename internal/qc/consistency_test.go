package qc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

func tempHumidityStation(t *testing.T, temps, hums []float64) *domain.Station {
	t.Helper()
	st := stationWith(t, domain.ObstypeTemp, temps)
	times := make([]time.Time, len(hums))
	for i := range times {
		times[i] = time.Date(2022, 9, 1, 10+i, 0, 0, 0, time.UTC)
	}
	s, err := domain.NewSeries(times, hums)
	require.NoError(t, err)
	st.SetSeries(domain.ObstypeHumidity, s)
	return st
}

func TestConsistency(t *testing.T) {
	settings := DefaultSettings()

	t.Run("rejects temperature on implausible humidity", func(t *testing.T) {
		st := tempHumidityStation(t,
			[]float64{18, 19, 20, 21},
			[]float64{55, 0, 120, 100},
		)
		out, labels, err := Consistency(settings)(st, domain.ObstypeTemp)
		require.NoError(t, err)

		assert.Equal(t, []domain.Label{
			domain.LabelOK,
			domain.LabelConsistencyOutlier,
			domain.LabelConsistencyOutlier,
			domain.LabelOK,
		}, labels)
		assert.True(t, domain.IsAbsent(out.Values[1]))
		assert.True(t, domain.IsAbsent(out.Values[2]))
	})

	t.Run("absent humidity leaves temperature unchecked", func(t *testing.T) {
		st := tempHumidityStation(t,
			[]float64{18, 19},
			[]float64{55, domain.Absent()},
		)
		out, labels, err := Consistency(settings)(st, domain.ObstypeTemp)
		require.NoError(t, err)

		assert.Equal(t, domain.LabelNotChecked, labels[1])
		assert.Equal(t, 19.0, out.Values[1])
	})

	t.Run("ignored temperature stays not checked", func(t *testing.T) {
		st := tempHumidityStation(t,
			[]float64{domain.Absent(), 19},
			[]float64{120, 55},
		)
		_, labels, err := Consistency(settings)(st, domain.ObstypeTemp)
		require.NoError(t, err)
		assert.Equal(t, domain.LabelNotChecked, labels[0])
	})

	t.Run("only applies to temperature", func(t *testing.T) {
		st := tempHumidityStation(t, []float64{18}, []float64{55})
		_, _, err := Consistency(settings)(st, domain.ObstypeHumidity)
		require.Error(t, err)
	})

	t.Run("requires a humidity series", func(t *testing.T) {
		st := stationWith(t, domain.ObstypeTemp, []float64{18})
		_, _, err := Consistency(settings)(st, domain.ObstypeTemp)
		require.Error(t, err)
	})

	t.Run("requires reconciled indexes", func(t *testing.T) {
		st := tempHumidityStation(t, []float64{18, 19}, []float64{55})
		_, _, err := Consistency(settings)(st, domain.ObstypeTemp)
		require.Error(t, err)
	})
}
