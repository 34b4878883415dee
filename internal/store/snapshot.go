// Package store holds the two state stores owned by the ingestion service:
// the latest snapshot per node plus fleet-wide lifetime counters, and the
// retention-bounded history streams.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dm/fleetmon/internal/model"
)

// ApplyOutcome classifies what an Apply call did.
type ApplyOutcome int

const (
	// Applied means the snapshot was newer than anything seen from the node
	// and is now its current state.
	Applied ApplyOutcome = iota
	// AppliedStale means the snapshot was older than the current state; its
	// counter deltas were bookkept but the displayed state did not regress.
	AppliedStale
	// Duplicate means the (node_id, timestamp) pair with an identical payload
	// was already applied; the call was a no-op.
	Duplicate
)

// nodeEntry is the per-node state. Its mutex serializes all writes for one
// node so a snapshot upsert and its counter deltas land together; entries
// for different nodes proceed independently.
type nodeEntry struct {
	mu             sync.Mutex
	snap           model.Snapshot
	lastSeen       time.Time
	lastApplied    time.Time // highest snapshot timestamp applied so far
	spawnedSeen    int64     // node-reported totals already folded into the fleet counters
	terminatedSeen int64
}

// SnapshotStore holds the latest known state per reporting node and the
// fleet-wide monotonic lifetime counters. Mutation happens only through
// Apply, Delete, and RestoreState — all invoked by the ingestion service.
type SnapshotStore struct {
	mu    sync.RWMutex
	nodes map[string]*nodeEntry

	spawned    atomic.Int64
	terminated atomic.Int64

	liveness time.Duration
	now      func() time.Time
}

// NewSnapshotStore creates a store with the given liveness window. A nil
// clock uses time.Now.
func NewSnapshotStore(liveness time.Duration, now func() time.Time) *SnapshotStore {
	if now == nil {
		now = time.Now
	}
	return &SnapshotStore{
		nodes:    make(map[string]*nodeEntry),
		liveness: liveness,
		now:      now,
	}
}

// Apply upserts the node's snapshot and folds its counter deltas into the
// fleet lifetime totals. Last-write-wins by snapshot timestamp: an older
// snapshot never regresses the displayed state. Counter deltas are clamped
// non-negative, so duplicates and out-of-order retransmissions can never
// double-count or decrease the totals.
//
// The returned HistoryPoint is the node's per-node history sample for this
// application (valid for Applied; zero otherwise).
func (s *SnapshotStore) Apply(snap model.Snapshot) (ApplyOutcome, model.HistoryPoint) {
	e := s.entry(snap.NodeID)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()

	if !snap.Timestamp.After(e.lastApplied) && samePayload(snap, e.snap) {
		return Duplicate, model.HistoryPoint{}
	}

	// Fold counter deltas. Reported totals only move the fleet counters
	// forward; a lower total (old retransmission, or a node reset) is ignored.
	if d := snap.SpawnedTotal - e.spawnedSeen; d > 0 {
		s.spawned.Add(d)
		e.spawnedSeen = snap.SpawnedTotal
	}
	if d := snap.TerminatedTotal - e.terminatedSeen; d > 0 {
		s.terminated.Add(d)
		e.terminatedSeen = snap.TerminatedTotal
	}

	e.lastSeen = now

	if !snap.Timestamp.After(e.lastApplied) {
		return AppliedStale, model.HistoryPoint{}
	}

	e.snap = snap
	e.lastApplied = snap.Timestamp

	return Applied, model.HistoryPoint{
		Timestamp:       now,
		NodesOnline:     1,
		WorkersActive:   snap.WorkerCount,
		SpawnedTotal:    e.spawnedSeen,
		TerminatedTotal: e.terminatedSeen,
	}
}

// entry returns the node's entry, creating it on first ingestion.
func (s *SnapshotStore) entry(nodeID string) *nodeEntry {
	s.mu.RLock()
	e, ok := s.nodes[nodeID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.nodes[nodeID]; ok {
		return e
	}
	e = &nodeEntry{}
	s.nodes[nodeID] = e
	return e
}

// samePayload reports whether two snapshots carry identical observable state.
func samePayload(a, b model.Snapshot) bool {
	return a.NodeID == b.NodeID &&
		a.WorkerCount == b.WorkerCount &&
		a.ReporterVersion == b.ReporterVersion &&
		a.SpawnedTotal == b.SpawnedTotal &&
		a.TerminatedTotal == b.TerminatedTotal &&
		a.Timestamp.Equal(b.Timestamp)
}

// Counters derives the current aggregate state: nodes seen within the
// liveness window, their summed worker counts, and the fleet lifetime totals.
func (s *SnapshotStore) Counters() model.AggregateCounters {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	agg := model.AggregateCounters{
		SpawnedTotal:    s.spawned.Load(),
		TerminatedTotal: s.terminated.Load(),
	}
	for _, e := range s.nodes {
		e.mu.Lock()
		if now.Sub(e.lastSeen) < s.liveness {
			agg.NodesOnline++
			agg.WorkersActive += e.snap.WorkerCount
		}
		if e.lastSeen.After(agg.LastUpdate) {
			agg.LastUpdate = e.lastSeen
		}
		e.mu.Unlock()
	}
	return agg
}

// Nodes returns the status of every known node, sorted by id. Stale nodes
// are included with Online=false; they are only removed by Delete.
func (s *SnapshotStore) Nodes() []model.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]model.NodeStatus, 0, len(s.nodes))
	for id, e := range s.nodes {
		e.mu.Lock()
		out = append(out, model.NodeStatus{
			NodeID:          id,
			WorkerCount:     e.snap.WorkerCount,
			ReporterVersion: e.snap.ReporterVersion,
			Timestamp:       e.snap.Timestamp,
			LastSeen:        e.lastSeen,
			Online:          now.Sub(e.lastSeen) < s.liveness,
		})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Len returns the number of known nodes, stale ones included.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Delete removes a node's snapshot entry. The fleet lifetime counters are
// monotonic and keep the node's contribution. Returns false for unknown ids.
func (s *SnapshotStore) Delete(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[nodeID]; !ok {
		return false
	}
	delete(s.nodes, nodeID)
	return true
}

// persistedNode is the serialized form of a nodeEntry.
type persistedNode struct {
	Snapshot       model.Snapshot `json:"snapshot"`
	LastSeen       time.Time      `json:"last_seen"`
	LastApplied    time.Time      `json:"last_applied"`
	SpawnedSeen    int64          `json:"spawned_seen"`
	TerminatedSeen int64          `json:"terminated_seen"`
}

type snapshotState struct {
	Nodes           map[string]persistedNode `json:"nodes"`
	SpawnedTotal    int64                    `json:"workers_spawned_total"`
	TerminatedTotal int64                    `json:"workers_terminated_total"`
}

// MarshalState serializes the full store for the persistence provider.
func (s *SnapshotStore) MarshalState() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := snapshotState{
		Nodes:           make(map[string]persistedNode, len(s.nodes)),
		SpawnedTotal:    s.spawned.Load(),
		TerminatedTotal: s.terminated.Load(),
	}
	for id, e := range s.nodes {
		e.mu.Lock()
		st.Nodes[id] = persistedNode{
			Snapshot:       e.snap,
			LastSeen:       e.lastSeen,
			LastApplied:    e.lastApplied,
			SpawnedSeen:    e.spawnedSeen,
			TerminatedSeen: e.terminatedSeen,
		}
		e.mu.Unlock()
	}
	return json.Marshal(st)
}

// RestoreState replaces the store contents with previously marshalled state.
// Called once at startup, before the store is shared.
func (s *SnapshotStore) RestoreState(data []byte) error {
	var st snapshotState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("restore snapshot state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*nodeEntry, len(st.Nodes))
	for id, pn := range st.Nodes {
		s.nodes[id] = &nodeEntry{
			snap:           pn.Snapshot,
			lastSeen:       pn.LastSeen,
			lastApplied:    pn.LastApplied,
			spawnedSeen:    pn.SpawnedSeen,
			terminatedSeen: pn.TerminatedSeen,
		}
	}
	s.spawned.Store(st.SpawnedTotal)
	s.terminated.Store(st.TerminatedTotal)
	return nil
}
