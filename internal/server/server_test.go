package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/fleetmon/internal/ingest"
	"github.com/dm/fleetmon/internal/kv"
	"github.com/dm/fleetmon/internal/model"
	"github.com/dm/fleetmon/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := time.Now
	snaps := store.NewSnapshotStore(2*time.Hour, now)
	hist := store.NewHistoryStore(store.HistoryConfig{
		NodeRetention:   7 * 24 * time.Hour,
		GlobalRetention: 365 * 24 * time.Hour,
	}, now)
	svc := ingest.New(snaps, hist, kv.NewMemoryStore(), ingest.Config{SampleInterval: time.Minute}, nil, now)
	return New(svc, nil)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func snapshotBody(node string, workers int, at time.Time) string {
	return fmt.Sprintf(`{"node_id":%q,"worker_count":%d,"reporter_version":"1.0.0","timestamp":%q}`,
		node, workers, at.Format(time.RFC3339Nano))
}

func TestPostSnapshot_AppliesAndDeduplicates(t *testing.T) {
	s := newTestServer(t)
	at := time.Now().UTC()

	w := doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":true}`, w.Body.String())

	// A verbatim retransmission is acknowledged, not re-applied.
	w = doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":false,"duplicate":true}`, w.Body.String())
}

func TestPostSnapshot_RejectsMalformed(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"missing node id", `{"worker_count":1,"timestamp":"2026-08-01T12:00:00Z"}`},
		{"missing worker count", `{"node_id":"a","timestamp":"2026-08-01T12:00:00Z"}`},
		{"negative worker count", `{"node_id":"a","worker_count":-1,"timestamp":"2026-08-01T12:00:00Z"}`},
		{"missing timestamp", `{"node_id":"a","worker_count":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/v1/snapshots", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Zero worker_count is valid; only absence is rejected.
	w := doJSON(t, s, http.MethodPost, "/api/v1/snapshots",
		`{"node_id":"a","worker_count":0,"timestamp":"2026-08-01T12:00:00Z"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)
	at := time.Now().UTC()
	doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))
	doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-b", 2, at))

	w := doJSON(t, s, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var agg model.AggregateCounters
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agg))
	assert.Equal(t, 2, agg.NodesOnline)
	assert.Equal(t, 5, agg.WorkersActive)
}

func TestGetHistory_CursorAndUnknownStream(t *testing.T) {
	s := newTestServer(t)
	at := time.Now().UTC()
	doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))

	w := doJSON(t, s, http.MethodGet, "/api/v1/history/node-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Stream string               `json:"stream"`
		Points []model.HistoryPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "node-a", resp.Stream)
	require.Len(t, resp.Points, 1)

	// A cursor at the last point yields nothing further.
	since := resp.Points[0].Timestamp.Format(time.RFC3339Nano)
	w = doJSON(t, s, http.MethodGet, "/api/v1/history/node-a?since="+since, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Points)

	w = doJSON(t, s, http.MethodGet, "/api/v1/history/node-a?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/history/no-such-node", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The global stream exists even before the first sample.
	w = doJSON(t, s, http.MethodGet, "/api/v1/history/global", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminNodes(t *testing.T) {
	s := newTestServer(t)
	at := time.Now().UTC()
	doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))

	w := doJSON(t, s, http.MethodGet, "/api/v1/admin/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Nodes []model.NodeStatus `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "node-a", resp.Nodes[0].NodeID)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/admin/nodes/node-a", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/admin/nodes/node-a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminFlushAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/admin/flush", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	at := time.Now().UTC()
	doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))
	doJSON(t, s, http.MethodPost, "/api/v1/snapshots", snapshotBody("node-a", 3, at))

	w := doJSON(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "fleetmon_snapshots_accepted_total 1")
	assert.Contains(t, body, "fleetmon_snapshots_duplicate_total 1")
	assert.Contains(t, body, "fleetmon_workers_active 3")
}
