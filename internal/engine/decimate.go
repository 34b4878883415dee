package engine

import (
	"sync"
	"time"

	"github.com/dm/fleetmon/internal/model"
)

// Decimate keeps every stride-th point, anchored so the newest point always
// survives. A stride of 1 or less returns the input unchanged. The same
// input always yields the same output, so a chart does not shimmer between
// redraws.
func Decimate(points []model.HistoryPoint, stride int) []model.HistoryPoint {
	if stride <= 1 || len(points) == 0 {
		return points
	}
	out := make([]model.HistoryPoint, 0, len(points)/stride+1)
	first := (len(points) - 1) % stride
	for i := first; i < len(points); i += stride {
		out = append(out, points[i])
	}
	return out
}

type decimated struct {
	points   []model.HistoryPoint
	computed time.Time
}

// Decimator produces chart-ready point slices for a time window: cut the
// stream to the window, then thin it to the point budget. Results are cached
// briefly because the UI re-renders far more often than data changes; any
// merge of new data invalidates the whole cache.
type Decimator struct {
	cadence time.Duration
	budget  int
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[model.Window]decimated
}

// NewDecimator sizes strides from the sampling cadence and the point budget.
// A nil clock uses time.Now.
func NewDecimator(cadence time.Duration, budget int, ttl time.Duration, now func() time.Time) *Decimator {
	if now == nil {
		now = time.Now
	}
	return &Decimator{
		cadence: cadence,
		budget:  budget,
		ttl:     ttl,
		now:     now,
		cache:   make(map[model.Window]decimated),
	}
}

// Window returns the decimated points of the series for one window, newest
// data inclusive. Served from cache when computed within the TTL.
func (d *Decimator) Window(w model.Window, s *model.Series) []model.HistoryPoint {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if hit, ok := d.cache[w]; ok && now.Sub(hit.computed) < d.ttl {
		return hit.points
	}

	cut := s.Since(now.Add(-w.Duration()))
	pts := Decimate(cut, w.Stride(d.cadence, d.budget))
	d.cache[w] = decimated{points: pts, computed: now}
	return pts
}

// Invalidate drops every cached window. Call after merging new points.
func (d *Decimator) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.cache)
}
