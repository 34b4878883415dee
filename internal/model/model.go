package model

import "time"

// StreamGlobal is the stream id of the fleet-wide history stream. Every other
// stream id is the NodeID of a reporting node.
const StreamGlobal = "global"

// Snapshot is the most recent known state of one reporting node. A node posts
// a fresh Snapshot on every report; only the latest per node is retained.
//
// SpawnedTotal and TerminatedTotal are the node's lifetime counters as
// reported by the node itself. They are absolute values, not increments; the
// ingestion service derives deltas from consecutive reports.
type Snapshot struct {
	NodeID          string    `json:"node_id" validate:"required"`
	WorkerCount     int       `json:"worker_count" validate:"gte=0"`
	ReporterVersion string    `json:"reporter_version"`
	SpawnedTotal    int64     `json:"workers_spawned_total" validate:"gte=0"`
	TerminatedTotal int64     `json:"workers_terminated_total" validate:"gte=0"`
	Timestamp       time.Time `json:"timestamp" validate:"required"`
}

// AggregateCounters is the fleet-wide state derived from the snapshot store.
// NodesOnline and WorkersActive cover only nodes seen within the liveness
// window; the two lifetime totals are monotonic and never recomputed from
// history.
type AggregateCounters struct {
	NodesOnline     int       `json:"nodes_online"`
	WorkersActive   int       `json:"workers_active"`
	SpawnedTotal    int64     `json:"workers_spawned_total"`
	TerminatedTotal int64     `json:"workers_terminated_total"`
	LastUpdate      time.Time `json:"last_update"`
}

// HistoryPoint is one sample of aggregate state appended to a history stream.
// On the global stream the fields cover the whole fleet; on a per-node stream
// NodesOnline is 1 and the remaining fields cover that node alone.
type HistoryPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	NodesOnline     int       `json:"nodes_online"`
	WorkersActive   int       `json:"workers_active"`
	SpawnedTotal    int64     `json:"workers_spawned_total"`
	TerminatedTotal int64     `json:"workers_terminated_total"`
}

// NodeStatus is display-ready state for a single node: its latest snapshot
// plus liveness as judged by the server.
type NodeStatus struct {
	NodeID          string    `json:"node_id"`
	WorkerCount     int       `json:"worker_count"`
	ReporterVersion string    `json:"reporter_version"`
	Timestamp       time.Time `json:"timestamp"`
	LastSeen        time.Time `json:"last_seen"`
	Online          bool      `json:"online"`
}
