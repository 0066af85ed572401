package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedProjection(t *testing.T) {
	ds, err := BuildDataset(sampleTable(), discardLogger())
	require.NoError(t, err)

	df := ds.Combined()
	assert.Equal(t, 8, df.Nrow())
	assert.Equal(t, []string{
		"datetime", "name", "network", "temp", "humidity",
		"lat", "lon", "call_name", "location", "lcz",
	}, df.Names())

	names := df.Col("name").Records()
	assert.Equal(t, "vlinder01", names[0])
	assert.Equal(t, "vlinder02", names[4])

	temps := df.Col("temp").Float()
	assert.Equal(t, 18.0, temps[0])
	assert.Equal(t, 17.0, temps[4])
}

func TestApplyQualityControl(t *testing.T) {
	t.Run("every station finishes a check before the next starts", func(t *testing.T) {
		ds, err := BuildDataset(sampleTable(), discardLogger())
		require.NoError(t, err)

		var trace []string
		record := func(name string) CheckFunc {
			return func(st *Station, obstype Obstype) (Series, []Label, error) {
				trace = append(trace, fmt.Sprintf("%s/%s", name, st.Name))
				return allOKCheck(st, obstype)
			}
		}
		checks := []NamedCheck{
			{Name: "gross_value", Fn: record("gross_value")},
			{Name: "persistence", Fn: record("persistence")},
		}

		ds.ApplyQualityControl(ObstypeTemp, checks, discardLogger())
		assert.Equal(t, []string{
			"gross_value/vlinder01",
			"gross_value/vlinder02",
			"persistence/vlinder01",
			"persistence/vlinder02",
		}, trace)
	})

	t.Run("failing station is skipped, others proceed", func(t *testing.T) {
		ds, err := BuildDataset(sampleTable(), discardLogger())
		require.NoError(t, err)

		failFirst := func(st *Station, obstype Obstype) (Series, []Label, error) {
			if st.Name == "vlinder01" {
				return Series{}, nil, fmt.Errorf("bad settings")
			}
			return allOKCheck(st, obstype)
		}
		ds.ApplyQualityControl(ObstypeTemp, []NamedCheck{{Name: "gross_value", Fn: failFirst}}, discardLogger())

		st1, _ := ds.GetStation("vlinder01")
		table1, _ := st1.Labels(ObstypeTemp)
		_, ok := table1.Column("gross_value")
		assert.False(t, ok)

		st2, _ := ds.GetStation("vlinder02")
		table2, _ := st2.Labels(ObstypeTemp)
		_, ok = table2.Column("gross_value")
		assert.True(t, ok)
	})

	t.Run("rebuilds combined projection with replaced values", func(t *testing.T) {
		ds, err := BuildDataset(sampleTable(), discardLogger())
		require.NoError(t, err)

		flagAll := func(st *Station, obstype Obstype) (Series, []Label, error) {
			s, _ := st.Series(obstype)
			out := s.Clone()
			labels := make([]Label, out.Len())
			for i := range out.Values {
				out.Values[i] = Absent()
				labels[i] = LabelGrossValueOutlier
			}
			return out, labels, nil
		}
		ds.ApplyQualityControl(ObstypeTemp, []NamedCheck{{Name: "gross_value", Fn: flagAll}}, discardLogger())

		for _, v := range ds.Combined().Col("temp").Float() {
			assert.True(t, IsAbsent(v))
		}
	})
}

func TestDatasetTimeRange(t *testing.T) {
	ds, err := BuildDataset(sampleTable(), discardLogger())
	require.NoError(t, err)

	start, end, ok := ds.TimeRange()
	require.True(t, ok)
	assert.Equal(t, ts(0), start)
	assert.Equal(t, ts(15), end)
}

func TestQCStats(t *testing.T) {
	ds, err := BuildDataset(sampleTable(), discardLogger())
	require.NoError(t, err)

	flagSecond := func(st *Station, obstype Obstype) (Series, []Label, error) {
		s, _ := st.Series(obstype)
		labels := make([]Label, s.Len())
		for i := range labels {
			labels[i] = LabelOK
		}
		labels[1] = LabelGrossValueOutlier
		return s, labels, nil
	}
	ds.ApplyQualityControl(ObstypeTemp, []NamedCheck{{Name: "gross_value", Fn: flagSecond}}, discardLogger())

	t.Run("whole dataset", func(t *testing.T) {
		df, err := ds.QCStats(ObstypeTemp, nil)
		require.NoError(t, err)
		require.Equal(t, 2, df.Nrow())
		assert.Equal(t, []string{"status", "gross_value"}, df.Col("check").Records())

		// 2 of 8 timestamps rejected by the gross value check.
		rejected := df.Col("outlier_pct").Float()
		assert.Equal(t, 0.0, rejected[0])
		assert.Equal(t, 25.0, rejected[1])
	})

	t.Run("station subset", func(t *testing.T) {
		df, err := ds.QCStats(ObstypeTemp, []string{"vlinder01"})
		require.NoError(t, err)
		assert.Equal(t, 25.0, df.Col("outlier_pct").Float()[1])
	})

	t.Run("unknown station", func(t *testing.T) {
		_, err := ds.QCStats(ObstypeTemp, []string{"nope"})
		require.Error(t, err)
	})
}

func TestSummarize(t *testing.T) {
	ds, err := BuildDataset(sampleTable(), discardLogger())
	require.NoError(t, err)

	sum := ds.Summarize(ObstypeTemp)
	assert.Equal(t, ObstypeTemp, sum.Obstype)
	assert.Equal(t, 8, sum.Count)
	assert.Equal(t, 0, sum.Absent)
	assert.InDelta(t, 19.0, sum.Mean, 1e-9)
	assert.Equal(t, 17.0, sum.Min)
	assert.Equal(t, 21.0, sum.Max)

	empty := ds.Summarize(ObstypeWindSpeed)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, IsAbsent(empty.Mean))
}
