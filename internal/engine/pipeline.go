package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dm/fleetmon/internal/client"
	"github.com/dm/fleetmon/internal/kv"
	"github.com/dm/fleetmon/internal/model"
)

const cacheKeyHistory = "history/global"

// PipelineConfig tunes the history pipeline.
type PipelineConfig struct {
	// Cadence is the server's sampling interval; it sizes decimation strides.
	Cadence time.Duration
	// Budget caps the points a chart window may hold after decimation.
	Budget int
	// CacheTTL is how long a decimated window is served without recomputing.
	CacheTTL time.Duration
	// Retention is the local horizon of the mirrored global stream.
	Retention time.Duration
	// FailThreshold is how many consecutive failed polls degrade the source.
	FailThreshold int
}

// Pipeline owns the dashboard's view of the global history stream: an
// incrementally synced mirror, a decimator over it, availability tracking
// for the source, and an optional local cache so a restarted dashboard does
// not re-backfill the full stream.
type Pipeline struct {
	src       client.Source
	cache     kv.Store
	sync      *SyncState
	dec       *Decimator
	avail     *Availability
	log       *slog.Logger
	now       func() time.Time
	retention time.Duration
	dirty     bool
}

// NewPipeline wires a pipeline over the given source. cache may be nil to
// disable local persistence; a nil clock uses time.Now, a nil logger uses
// slog.Default.
func NewPipeline(src client.Source, cache kv.Store, cfg PipelineConfig, log *slog.Logger, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Retention <= 0 {
		// The mirror never needs more than the longest window.
		cfg.Retention = model.Window1y.Duration()
	}
	return &Pipeline{
		src:       src,
		cache:     cache,
		sync:      NewSyncState(),
		dec:       NewDecimator(cfg.Cadence, cfg.Budget, cfg.CacheTTL, now),
		avail:     NewAvailability(cfg.FailThreshold),
		log:       log,
		now:       now,
		retention: cfg.Retention,
	}
}

// LoadCache seeds the mirror from the local cache so the first poll only
// fetches what happened since the dashboard last ran. An absent cache entry
// is a fresh start, not an error.
func (p *Pipeline) LoadCache() error {
	if p.cache == nil {
		return nil
	}
	data, err := p.cache.Load(cacheKeyHistory)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load history cache: %w", err)
	}

	var points []model.HistoryPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("decode history cache: %w", err)
	}
	p.sync.Merge(points)
	p.log.Info("history cache loaded", slog.Int("points", len(points)))
	return nil
}

// SaveCache persists the mirror if anything changed since the last save.
func (p *Pipeline) SaveCache() error {
	if p.cache == nil || !p.dirty {
		return nil
	}
	data, err := json.Marshal(p.sync.Series().Points())
	if err != nil {
		return err
	}
	if err := p.cache.Save(cacheKeyHistory, data); err != nil {
		return fmt.Errorf("save history cache: %w", err)
	}
	p.dirty = false
	return nil
}

// ApplyHistory folds one fetch's points into the mirror. Returns how many
// were new.
func (p *Pipeline) ApplyHistory(points []model.HistoryPoint) int {
	added := p.sync.Merge(points)
	if added > 0 {
		p.sync.TrimBefore(p.now().Add(-p.retention))
		p.dec.Invalidate()
		p.dirty = true
	}
	return added
}

// RecordFailure notes a failed poll; true when this poll degraded the source.
func (p *Pipeline) RecordFailure() bool {
	return p.avail.RecordFailure()
}

// RecordSuccess notes a successful poll; true when this poll recovered the
// source.
func (p *Pipeline) RecordSuccess() bool {
	return p.avail.RecordSuccess()
}

// Source returns the underlying source, for callers that fetch on their own
// schedule and feed results back through ApplyHistory.
func (p *Pipeline) Source() client.Source {
	return p.src
}

// PollHistory fetches points strictly after the sync cursor and merges them
// into the mirror. Returns how many points were new.
func (p *Pipeline) PollHistory(ctx context.Context) (int, error) {
	points, err := p.src.History(ctx, model.StreamGlobal, p.sync.Cursor())
	if err != nil {
		p.avail.RecordFailure()
		return 0, err
	}
	p.avail.RecordSuccess()
	return p.ApplyHistory(points), nil
}

// PollLive fetches the current counters and node list.
func (p *Pipeline) PollLive(ctx context.Context) (*LiveState, error) {
	live, err := FetchLive(ctx, p.src)
	if err != nil {
		p.avail.RecordFailure()
		return nil, err
	}
	p.avail.RecordSuccess()
	return live, nil
}

// WindowPoints returns the chart-ready points for one window.
func (p *Pipeline) WindowPoints(w model.Window) []model.HistoryPoint {
	return p.dec.Window(w, p.sync.Series())
}

// Degraded reports whether the source has failed enough polls in a row to be
// considered unreachable.
func (p *Pipeline) Degraded() bool {
	return p.avail.Degraded()
}

// Cursor exposes the sync cursor, mainly for the footer.
func (p *Pipeline) Cursor() time.Time {
	return p.sync.Cursor()
}

// Len returns the mirrored point count.
func (p *Pipeline) Len() int {
	return p.sync.Series().Len()
}
