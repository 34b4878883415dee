package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dm/fleetmon/internal/model"
)

const (
	endpointHealth    = "/health"
	endpointSnapshots = "/api/v1/snapshots"
	endpointStats     = "/api/v1/stats"
	endpointHistory   = "/api/v1/history/"
	endpointNodes     = "/api/v1/admin/nodes"
	endpointFlush     = "/api/v1/admin/flush"
)

// Current fetches the live aggregate counters from /api/v1/stats.
func (c *DefaultClient) Current(ctx context.Context) (model.AggregateCounters, error) {
	body, err := c.doGet(ctx, endpointStats)
	if err != nil {
		return model.AggregateCounters{}, fmt.Errorf("Current: %w", err)
	}

	var result model.AggregateCounters
	if err := json.Unmarshal(body, &result); err != nil {
		return model.AggregateCounters{}, fmt.Errorf("Current decode: %w", err)
	}
	return result, nil
}

// History fetches the points of a stream strictly after since. A zero since
// fetches the whole retained stream.
func (c *DefaultClient) History(ctx context.Context, stream string, since time.Time) ([]model.HistoryPoint, error) {
	path := endpointHistory + url.PathEscape(stream)
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.Format(time.RFC3339Nano))
	}

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}

	var result struct {
		Points []model.HistoryPoint `json:"points"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("History decode: %w", err)
	}
	return result.Points, nil
}

// Nodes fetches the status of every known node.
func (c *DefaultClient) Nodes(ctx context.Context) ([]model.NodeStatus, error) {
	body, err := c.doGet(ctx, endpointNodes)
	if err != nil {
		return nil, fmt.Errorf("Nodes: %w", err)
	}

	var result struct {
		Nodes []model.NodeStatus `json:"nodes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("Nodes decode: %w", err)
	}
	return result.Nodes, nil
}

// ReportResult tells a reporter whether its snapshot was applied or dropped
// as a retransmission.
type ReportResult struct {
	Applied   bool `json:"applied"`
	Duplicate bool `json:"duplicate"`
}

// Report submits one snapshot. Duplicates are acknowledged by the server, so
// a nil error means the snapshot is durably counted either way.
func (c *DefaultClient) Report(ctx context.Context, snap model.Snapshot) (ReportResult, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return ReportResult{}, fmt.Errorf("Report encode: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, endpointSnapshots, payload)
	if err != nil {
		return ReportResult{}, fmt.Errorf("Report: %w", err)
	}

	var result ReportResult
	if err := json.Unmarshal(body, &result); err != nil {
		return ReportResult{}, fmt.Errorf("Report decode: %w", err)
	}
	return result, nil
}

// DeleteNode removes a node's snapshot and history on the server.
func (c *DefaultClient) DeleteNode(ctx context.Context, nodeID string) error {
	if nodeID == "" {
		return fmt.Errorf("DeleteNode: node id must not be empty")
	}
	path := endpointNodes + "/" + url.PathEscape(nodeID)
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("DeleteNode: %w", err)
	}
	return nil
}

// Flush asks the server to persist its state now.
func (c *DefaultClient) Flush(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, endpointFlush, nil); err != nil {
		return fmt.Errorf("Flush: %w", err)
	}
	return nil
}
