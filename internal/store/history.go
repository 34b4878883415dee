package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dm/fleetmon/internal/model"
)

// ErrUnknownStream is returned by FetchSince for a stream id that is neither
// the global stream nor a node with recorded history.
var ErrUnknownStream = errors.New("unknown history stream")

// HistoryConfig bounds the history streams.
type HistoryConfig struct {
	// NodeRetention is the time horizon of each per-node stream.
	NodeRetention time.Duration
	// GlobalRetention is the time horizon of the global stream.
	GlobalRetention time.Duration
	// GlobalMaxPoints hard-caps the global stream regardless of horizon.
	// 0 means no cap.
	GlobalMaxPoints int
}

// HistoryStore holds the global stream and one stream per node, each
// time-ordered and retention-bounded by prefix trims. The ingestion service
// is the only writer; readers get copies and therefore always observe a
// consistent prefix.
type HistoryStore struct {
	mu      sync.RWMutex
	cfg     HistoryConfig
	now     func() time.Time
	global  *model.Series
	perNode map[string]*model.Series
}

// NewHistoryStore creates an empty store. A nil clock uses time.Now.
func NewHistoryStore(cfg HistoryConfig, now func() time.Time) *HistoryStore {
	if now == nil {
		now = time.Now
	}
	return &HistoryStore{
		cfg:     cfg,
		now:     now,
		global:  model.NewSeries(nil),
		perNode: make(map[string]*model.Series),
	}
}

// AppendGlobal appends one sample to the global stream and applies the
// retention trim. Returns false if the point was not newer than the stream
// head.
func (h *HistoryStore) AppendGlobal(p model.HistoryPoint) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	ok := h.global.Append(p)
	h.global.TrimBefore(h.now().Add(-h.cfg.GlobalRetention))
	h.global.CapTo(h.cfg.GlobalMaxPoints)
	return ok
}

// AppendNode appends one sample to the node's stream, creating the stream on
// first use, and applies the per-node retention trim.
func (h *HistoryStore) AppendNode(nodeID string, p model.HistoryPoint) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.perNode[nodeID]
	if !ok {
		s = model.NewSeries(nil)
		h.perNode[nodeID] = s
	}
	appended := s.Append(p)
	s.TrimBefore(h.now().Add(-h.cfg.NodeRetention))
	return appended
}

// FetchSince returns the points of a stream with timestamp strictly after
// since, in chronological order. A zero since returns the full retained
// stream. No new points is an empty slice, not an error.
func (h *HistoryStore) FetchSince(streamID string, since time.Time) ([]model.HistoryPoint, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if streamID == model.StreamGlobal {
		return h.global.Since(since), nil
	}
	s, ok := h.perNode[streamID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, streamID)
	}
	return s.Since(since), nil
}

// NodeIDs returns the ids of all nodes with history, sorted.
func (h *HistoryStore) NodeIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.perNode))
	for id := range h.perNode {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// GlobalLen returns the number of points in the global stream.
func (h *HistoryStore) GlobalLen() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.global.Len()
}

// DeleteNode drops a node's stream. Returns false for unknown ids.
func (h *HistoryStore) DeleteNode(nodeID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.perNode[nodeID]; !ok {
		return false
	}
	delete(h.perNode, nodeID)
	return true
}

type historyState struct {
	Global  []model.HistoryPoint            `json:"global"`
	PerNode map[string][]model.HistoryPoint `json:"per_node"`
}

// MarshalState serializes all streams for the persistence provider.
func (h *HistoryStore) MarshalState() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := historyState{
		Global:  h.global.Points(),
		PerNode: make(map[string][]model.HistoryPoint, len(h.perNode)),
	}
	for id, s := range h.perNode {
		st.PerNode[id] = s.Points()
	}
	return json.Marshal(st)
}

// RestoreState replaces all streams with previously marshalled state and
// re-applies the retention bounds (time may have passed since the save).
func (h *HistoryStore) RestoreState(data []byte) error {
	var st historyState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("restore history state: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.global = model.NewSeries(st.Global)
	h.global.TrimBefore(now.Add(-h.cfg.GlobalRetention))
	h.global.CapTo(h.cfg.GlobalMaxPoints)

	h.perNode = make(map[string]*model.Series, len(st.PerNode))
	for id, pts := range st.PerNode {
		s := model.NewSeries(pts)
		s.TrimBefore(now.Add(-h.cfg.NodeRetention))
		h.perNode[id] = s
	}
	return nil
}
