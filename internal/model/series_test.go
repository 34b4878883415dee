package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(sec int) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

func pt(sec, workers int) HistoryPoint {
	return HistoryPoint{Timestamp: ts(sec), WorkersActive: workers}
}

func TestSeries_AppendKeepsOrder(t *testing.T) {
	s := NewSeries(nil)
	assert.True(t, s.Append(pt(10, 1)))
	assert.True(t, s.Append(pt(20, 2)))
	assert.True(t, s.Append(pt(30, 3)))
	assert.Equal(t, 3, s.Len())

	// Equal and older timestamps are rejected.
	assert.False(t, s.Append(pt(30, 9)))
	assert.False(t, s.Append(pt(5, 9)))
	assert.Equal(t, 3, s.Len())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last.WorkersActive)
}

func TestSeries_MergeDeduplicatesByTimestamp(t *testing.T) {
	s := NewSeries([]HistoryPoint{pt(10, 1), pt(30, 3)})

	added := s.Merge([]HistoryPoint{pt(20, 2), pt(30, 99), pt(40, 4)})
	assert.Equal(t, 2, added)
	assert.Equal(t, 4, s.Len())

	points := s.Points()
	assert.Equal(t, []HistoryPoint{pt(10, 1), pt(20, 2), pt(30, 3), pt(40, 4)}, points)

	// Re-merging the same points is a no-op.
	assert.Equal(t, 0, s.Merge(points))
	assert.Equal(t, 4, s.Len())
}

func TestSeries_TrimBefore(t *testing.T) {
	s := NewSeries([]HistoryPoint{pt(10, 1), pt(20, 2), pt(30, 3), pt(40, 4), pt(50, 5)})

	removed := s.TrimBefore(ts(30))
	assert.Equal(t, 2, removed)
	assert.Equal(t, []HistoryPoint{pt(30, 3), pt(40, 4), pt(50, 5)}, s.Points())

	// Cutoff before the first point removes nothing.
	assert.Equal(t, 0, s.TrimBefore(ts(1)))
}

func TestSeries_CapTo(t *testing.T) {
	s := NewSeries([]HistoryPoint{pt(10, 1), pt(20, 2), pt(30, 3), pt(40, 4), pt(50, 5)})

	assert.Equal(t, 2, s.CapTo(3))
	assert.Equal(t, []HistoryPoint{pt(30, 3), pt(40, 4), pt(50, 5)}, s.Points())

	assert.Equal(t, 0, s.CapTo(10))
	assert.Equal(t, 0, s.CapTo(0)) // unlimited
}

func TestSeries_Since(t *testing.T) {
	s := NewSeries([]HistoryPoint{pt(10, 1), pt(20, 2), pt(30, 3)})

	// Cursor before the first point returns everything.
	assert.Len(t, s.Since(ts(1)), 3)
	// Strictly-after semantics: the cursor's own point is excluded.
	assert.Equal(t, []HistoryPoint{pt(30, 3)}, s.Since(ts(20)))
	// Cursor at or past the last point returns an empty slice, not nil error.
	assert.Empty(t, s.Since(ts(30)))
	assert.Empty(t, s.Since(ts(99)))
	// Zero time returns the full series.
	assert.Len(t, s.Since(time.Time{}), 3)
}

func TestSeries_SinceReturnsCopy(t *testing.T) {
	s := NewSeries([]HistoryPoint{pt(10, 1), pt(20, 2)})
	out := s.Since(time.Time{})
	out[0].WorkersActive = 777
	assert.Equal(t, 1, s.Points()[0].WorkersActive)
}

func TestSeries_Values(t *testing.T) {
	s := NewSeries([]HistoryPoint{
		{Timestamp: ts(10), NodesOnline: 2, WorkersActive: 5, SpawnedTotal: 100, TerminatedTotal: 95},
		{Timestamp: ts(20), NodesOnline: 3, WorkersActive: 7, SpawnedTotal: 110, TerminatedTotal: 103},
	})

	assert.Equal(t, []float64{2, 3}, s.Values("nodesOnline"))
	assert.Equal(t, []float64{5, 7}, s.Values("workersActive"))
	assert.Equal(t, []float64{100, 110}, s.Values("spawnedTotal"))
	assert.Equal(t, []float64{95, 103}, s.Values("terminatedTotal"))
	assert.Equal(t, []float64{0, 0}, s.Values("bogusField"))
}

func TestNewSeries_SortsInput(t *testing.T) {
	s := NewSeries([]HistoryPoint{pt(30, 3), pt(10, 1), pt(20, 2)})
	assert.Equal(t, []HistoryPoint{pt(10, 1), pt(20, 2), pt(30, 3)}, s.Points())
}
