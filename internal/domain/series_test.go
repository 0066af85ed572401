package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(min int) time.Time {
	return time.Date(2022, 9, 1, 10, min, 0, 0, time.UTC)
}

func mustSeries(t *testing.T, times []time.Time, values []float64) Series {
	t.Helper()
	s, err := NewSeries(times, values)
	require.NoError(t, err)
	return s
}

func TestNewSeries(t *testing.T) {
	t.Run("sorts by timestamp", func(t *testing.T) {
		s := mustSeries(t,
			[]time.Time{ts(10), ts(0), ts(5)},
			[]float64{3, 1, 2},
		)
		assert.Equal(t, []time.Time{ts(0), ts(5), ts(10)}, s.Times)
		assert.Equal(t, []float64{1, 2, 3}, s.Values)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewSeries([]time.Time{ts(0)}, []float64{1, 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "length mismatch")
	})

	t.Run("does not retain input slices", func(t *testing.T) {
		times := []time.Time{ts(0), ts(5)}
		values := []float64{1, 2}
		s := mustSeries(t, times, values)
		values[0] = 99
		assert.Equal(t, 1.0, s.Values[0])
	})
}

func TestSeriesAbsent(t *testing.T) {
	s := mustSeries(t,
		[]time.Time{ts(0), ts(5), ts(10)},
		[]float64{1, Absent(), Absent()},
	)
	assert.Equal(t, 2, s.AbsentCount())
	assert.False(t, s.AllAbsent())

	empty := Series{}
	assert.True(t, empty.AllAbsent())
}

func TestDropDuplicateTimes(t *testing.T) {
	t.Run("keeps first occurrence", func(t *testing.T) {
		s := mustSeries(t,
			[]time.Time{ts(0), ts(0), ts(5), ts(5), ts(10)},
			[]float64{1, 99, 2, 98, 3},
		)
		out, dropped := s.dropDuplicateTimes()
		assert.Equal(t, 2, dropped)
		assert.Equal(t, []time.Time{ts(0), ts(5), ts(10)}, out.Times)
		assert.Equal(t, []float64{1, 2, 3}, out.Values)
	})

	t.Run("no duplicates", func(t *testing.T) {
		s := mustSeries(t, []time.Time{ts(0), ts(5)}, []float64{1, 2})
		out, dropped := s.dropDuplicateTimes()
		assert.Equal(t, 0, dropped)
		assert.Equal(t, s.Times, out.Times)
	})
}
