package model

import (
	"sort"
	"time"
)

// Series is a time-ordered sequence of HistoryPoints. Appends keep the
// sequence ordered, merges de-duplicate by timestamp, and trims only ever
// remove a prefix — points are never reordered once stored.
//
// Series is not safe for concurrent use; callers that share one provide
// their own locking.
type Series struct {
	points []HistoryPoint
}

// NewSeries creates a Series pre-loaded with the given points. The slice is
// copied and sorted by timestamp.
func NewSeries(points []HistoryPoint) *Series {
	s := &Series{points: make([]HistoryPoint, len(points))}
	copy(s.points, points)
	sort.SliceStable(s.points, func(i, j int) bool {
		return s.points[i].Timestamp.Before(s.points[j].Timestamp)
	})
	return s
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.points)
}

// Last returns the newest point, or false when the series is empty.
func (s *Series) Last() (HistoryPoint, bool) {
	if len(s.points) == 0 {
		return HistoryPoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Append adds p to the end of the series. A point whose timestamp is not
// strictly after the current last point is dropped (returns false) — the
// single writer samples on a monotonic cadence, so an out-of-order append is
// a duplicate, not new data.
func (s *Series) Append(p HistoryPoint) bool {
	if last, ok := s.Last(); ok && !p.Timestamp.After(last.Timestamp) {
		return false
	}
	s.points = append(s.points, p)
	return true
}

// Merge inserts the given points, keeping chronological order and dropping
// any point whose timestamp is already present (first occurrence wins).
// Returns the number of points actually added.
func (s *Series) Merge(points []HistoryPoint) int {
	added := 0
	for _, p := range points {
		i := s.searchAfter(p.Timestamp)
		if i > 0 && s.points[i-1].Timestamp.Equal(p.Timestamp) {
			continue
		}
		s.points = append(s.points, HistoryPoint{})
		copy(s.points[i+1:], s.points[i:])
		s.points[i] = p
		added++
	}
	return added
}

// TrimBefore removes the prefix of points older than cutoff and returns the
// number removed. Points with Timestamp == cutoff are kept.
func (s *Series) TrimBefore(cutoff time.Time) int {
	i := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Timestamp.Before(cutoff)
	})
	if i == 0 {
		return 0
	}
	s.points = append(s.points[:0], s.points[i:]...)
	return i
}

// CapTo drops the oldest points until at most max remain. Returns the number
// removed. max <= 0 means unlimited.
func (s *Series) CapTo(max int) int {
	if max <= 0 || len(s.points) <= max {
		return 0
	}
	n := len(s.points) - max
	s.points = append(s.points[:0], s.points[n:]...)
	return n
}

// Since returns a copy of all points with Timestamp strictly after t.
// A zero t returns the full series.
func (s *Series) Since(t time.Time) []HistoryPoint {
	i := s.searchAfter(t)
	out := make([]HistoryPoint, len(s.points)-i)
	copy(out, s.points[i:])
	return out
}

// Points returns a copy of the whole series in chronological order.
func (s *Series) Points() []HistoryPoint {
	return s.Since(time.Time{})
}

// Values returns a float64 slice of the named field in chronological order,
// for sparkline rendering. Valid field names: "nodesOnline", "workersActive",
// "spawnedTotal", "terminatedTotal".
func (s *Series) Values(field string) []float64 {
	return PointValues(s.points, field)
}

// PointValues extracts the named field from an already-materialised point
// slice. Unknown fields yield zeros.
func PointValues(points []HistoryPoint, field string) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		switch field {
		case "nodesOnline":
			out[i] = float64(p.NodesOnline)
		case "workersActive":
			out[i] = float64(p.WorkersActive)
		case "spawnedTotal":
			out[i] = float64(p.SpawnedTotal)
		case "terminatedTotal":
			out[i] = float64(p.TerminatedTotal)
		}
	}
	return out
}

// searchAfter returns the index of the first point with Timestamp > t.
func (s *Series) searchAfter(t time.Time) int {
	return sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Timestamp.After(t)
	})
}
