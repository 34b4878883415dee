// Package ingest implements the ingestion service: the single owner of the
// snapshot and history stores. It validates incoming snapshots, applies them
// idempotently, samples the global history stream on a fixed cadence, and
// exposes the query and administrative surface the HTTP layer serves.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dm/fleetmon/internal/kv"
	"github.com/dm/fleetmon/internal/model"
	"github.com/dm/fleetmon/internal/store"
)

// Persistence provider keys.
const (
	keySnapshots = "state/snapshots"
	keyHistory   = "state/history"
)

// Config tunes the service's sampling and flushing cadence.
type Config struct {
	// SampleInterval is the wall-clock cadence of global history sampling,
	// independent of ingestion volume.
	SampleInterval time.Duration
	// FlushEvery persists the history streams every N global samples.
	// 0 flushes on every sample.
	FlushEvery int
}

// Service owns the snapshot and history stores. All mutation of either goes
// through this type.
type Service struct {
	snaps    *store.SnapshotStore
	hist     *store.HistoryStore
	db       kv.Store
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
	cfg      Config

	mu          sync.Mutex
	sampleCount int
	// persistPending is set when a snapshot-state write failed and the
	// provider still owes us a persist; cleared on the next success.
	persistPending bool
}

// New wires a service over the given stores and persistence provider.
// A nil clock uses time.Now; a nil logger uses slog.Default.
func New(snaps *store.SnapshotStore, hist *store.HistoryStore, db kv.Store, cfg Config, log *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		snaps:    snaps,
		hist:     hist,
		db:       db,
		validate: validator.New(),
		log:      log,
		now:      now,
		cfg:      cfg,
	}
}

// Restore loads previously persisted state. Absent keys are a fresh start,
// not an error. Called once before the service is shared.
func (s *Service) Restore() error {
	if data, err := s.db.Load(keySnapshots); err == nil {
		if err := s.snaps.RestoreState(data); err != nil {
			return err
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if data, err := s.db.Load(keyHistory); err == nil {
		if err := s.hist.RestoreState(data); err != nil {
			return err
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.Info("state restored",
		slog.Int("nodes", s.snaps.Len()),
		slog.Int("global_points", s.hist.GlobalLen()))
	return nil
}

// Ingest validates and applies one snapshot. Returns ErrInvalidSnapshot for
// malformed input, ErrStaleDuplicate for an already-applied retransmission
// (a successful no-op), and ErrPersistence when the provider write fails.
func (s *Service) Ingest(snap model.Snapshot) error {
	if err := s.validateSnapshot(snap); err != nil {
		s.log.Warn("snapshot rejected", slog.String("node", snap.NodeID), slog.String("reason", err.Error()))
		return err
	}

	outcome, nodePoint := s.snaps.Apply(snap)
	switch outcome {
	case store.Duplicate:
		// A retransmission after a failed persist still owes the provider
		// a write; repair it before acknowledging the duplicate, otherwise
		// the acknowledged snapshot would be lost on restart.
		s.mu.Lock()
		pending := s.persistPending
		s.mu.Unlock()
		if pending {
			if err := s.persistSnapshots(); err != nil {
				return err
			}
		}
		return ErrStaleDuplicate
	case store.Applied:
		s.hist.AppendNode(snap.NodeID, nodePoint)
	case store.AppliedStale:
		// Counters bookkept; current state and per-node stream untouched.
	}

	if err := s.persistSnapshots(); err != nil {
		// The in-memory apply is already idempotent, so the caller can
		// safely retransmit until the provider write goes through.
		return err
	}
	return nil
}

// validateSnapshot enforces the ingestion boundary: required node id and
// timestamp, non-negative counts.
func (s *Service) validateSnapshot(snap model.Snapshot) error {
	if snap.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidSnapshot)
	}
	if err := s.validate.Struct(snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

// HealthInfo is the health endpoint payload: store sizes and the
// persistence medium.
type HealthInfo struct {
	Nodes        int    `json:"nodes"`
	GlobalPoints int    `json:"global_points"`
	Storage      string `json:"storage"`
}

// Health reports current store sizes and the persistence medium.
func (s *Service) Health() HealthInfo {
	return HealthInfo{
		Nodes:        s.snaps.Len(),
		GlobalPoints: s.hist.GlobalLen(),
		Storage:      s.db.Name(),
	}
}

// QueryCurrent returns the live aggregate counters.
func (s *Service) QueryCurrent() model.AggregateCounters {
	return s.snaps.Counters()
}

// FetchHistory returns the points of a stream strictly after since, in
// ascending order. streamID is model.StreamGlobal or a node id.
func (s *Service) FetchHistory(streamID string, since time.Time) ([]model.HistoryPoint, error) {
	return s.hist.FetchSince(streamID, since)
}

// ListNodes returns the status of every known node.
func (s *Service) ListNodes() []model.NodeStatus {
	return s.snaps.Nodes()
}

// DeleteNode removes a node's snapshot and history stream. Administrative
// operation; the ingestion path itself never deletes nodes.
func (s *Service) DeleteNode(nodeID string) error {
	hadSnap := s.snaps.Delete(nodeID)
	hadHist := s.hist.DeleteNode(nodeID)
	if !hadSnap && !hadHist {
		return fmt.Errorf("%w: %q", ErrUnknownNode, nodeID)
	}
	if err := s.persistSnapshots(); err != nil {
		return err
	}
	return s.persistHistory()
}

// Flush forces a full persist of both stores and syncs the provider.
func (s *Service) Flush() error {
	if err := s.persistSnapshots(); err != nil {
		return err
	}
	if err := s.persistHistory(); err != nil {
		return err
	}
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Sample appends one point of current aggregate state to the global stream
// and flushes history every FlushEvery samples.
func (s *Service) Sample() {
	agg := s.snaps.Counters()
	now := s.now()
	s.hist.AppendGlobal(model.HistoryPoint{
		Timestamp:       now,
		NodesOnline:     agg.NodesOnline,
		WorkersActive:   agg.WorkersActive,
		SpawnedTotal:    agg.SpawnedTotal,
		TerminatedTotal: agg.TerminatedTotal,
	})

	s.mu.Lock()
	s.sampleCount++
	due := s.cfg.FlushEvery <= 0 || s.sampleCount%s.cfg.FlushEvery == 0
	s.mu.Unlock()

	if due {
		if err := s.persistHistory(); err != nil {
			s.log.Error("history flush failed", slog.String("error", err.Error()))
		}
	}
}

// Run samples the global stream on the configured cadence until ctx is
// cancelled, then flushes once on the way out.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(); err != nil {
				s.log.Error("final flush failed", slog.String("error", err.Error()))
			}
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}

func (s *Service) persistSnapshots() error {
	data, err := s.snaps.MarshalState()
	if err != nil {
		return err
	}
	saveErr := s.db.Save(keySnapshots, data)
	s.mu.Lock()
	s.persistPending = saveErr != nil
	s.mu.Unlock()
	if saveErr != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, saveErr)
	}
	return nil
}

func (s *Service) persistHistory() error {
	data, err := s.hist.MarshalState()
	if err != nil {
		return err
	}
	if err := s.db.Save(keyHistory, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
