package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/fleetmon/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *DefaultClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewDefaultClient(Config{BaseURL: srv.URL, RequestTimeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewDefaultClient_RequiresBaseURL(t *testing.T) {
	_, err := NewDefaultClient(Config{})
	assert.Error(t, err)
}

func TestCurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"nodes_online":2,"workers_active":5,"workers_spawned_total":100}`))
	})

	agg, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, agg.NodesOnline)
	assert.Equal(t, 5, agg.WorkersActive)
	assert.Equal(t, int64(100), agg.SpawnedTotal)
}

func TestHistory_SinceQuery(t *testing.T) {
	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/history/global", r.URL.Path)
		assert.Equal(t, since.Format(time.RFC3339Nano), r.URL.Query().Get("since"))
		w.Write([]byte(`{"stream":"global","points":[{"timestamp":"2026-08-01T12:01:00Z","workers_active":3}]}`))
	})

	pts, err := c.History(context.Background(), model.StreamGlobal, since)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, 3, pts[0].WorkersActive)
}

func TestHistory_ZeroSinceOmitsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since"))
		w.Write([]byte(`{"stream":"global","points":[]}`))
	})

	pts, err := c.History(context.Background(), model.StreamGlobal, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/snapshots", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"applied":false,"duplicate":true}`))
	})

	res, err := c.Report(context.Background(), model.Snapshot{
		NodeID:      "node-a",
		WorkerCount: 3,
		Timestamp:   time.Now(),
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.True(t, res.Duplicate)
}

func TestDeleteNode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/admin/nodes/node-a", r.URL.Path)
		w.Write([]byte(`{"deleted":"node-a"}`))
	})

	require.NoError(t, c.DeleteNode(context.Background(), "node-a"))
	assert.Error(t, c.DeleteNode(context.Background(), ""))
}

func TestErrorCarriesTruncatedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Contains(t, err.Error(), "boom")
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	})
	assert.NoError(t, c.Ping(context.Background()))
}
