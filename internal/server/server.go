// Package server exposes the ingestion service over HTTP: snapshot intake,
// the current-stats and incremental history query surface, and the
// administrative endpoints. Authorization for the admin group is left to the
// deployment surrounding this service.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dm/fleetmon/internal/ingest"
	"github.com/dm/fleetmon/internal/model"
	"github.com/dm/fleetmon/internal/store"
)

// Server wraps a gin router over an ingest.Service.
type Server struct {
	svc      *ingest.Service
	log      *slog.Logger
	router   *gin.Engine
	registry *prometheus.Registry

	accepted   prometheus.Counter
	rejected   *prometheus.CounterVec
	duplicates prometheus.Counter
}

// New builds the router and registers metrics. A nil logger uses
// slog.Default.
func New(svc *ingest.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		svc:      svc,
		log:      log,
		registry: prometheus.NewRegistry(),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetmon_snapshots_accepted_total",
			Help: "Snapshots applied to the snapshot store.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetmon_snapshots_rejected_total",
			Help: "Snapshots rejected at the ingestion boundary.",
		}, []string{"reason"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetmon_snapshots_duplicate_total",
			Help: "Retransmissions dropped by the idempotency check.",
		}),
	}
	s.registry.MustRegister(s.accepted, s.rejected, s.duplicates)
	s.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fleetmon_nodes_online",
		Help: "Nodes seen within the liveness window.",
	}, func() float64 { return float64(svc.QueryCurrent().NodesOnline) }))
	s.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fleetmon_workers_active",
		Help: "Workers on nodes seen within the liveness window.",
	}, func() float64 { return float64(svc.QueryCurrent().WorkersActive) }))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/snapshots", s.handleIngest)
		v1.GET("/stats", s.handleStats)
		v1.GET("/history/:stream", s.handleHistory)

		admin := v1.Group("/admin")
		{
			admin.GET("/nodes", s.handleListNodes)
			admin.DELETE("/nodes/:id", s.handleDeleteNode)
			admin.POST("/flush", s.handleFlush)
		}
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("listening", slog.String("addr", addr))
	return s.router.Run(addr)
}

// ingestRequest is the wire form of a snapshot. WorkerCount and Timestamp
// are pointers so that binding can tell "absent" from zero values.
type ingestRequest struct {
	NodeID          string     `json:"node_id" binding:"required"`
	WorkerCount     *int       `json:"worker_count" binding:"required,gte=0"`
	ReporterVersion string     `json:"reporter_version"`
	SpawnedTotal    int64      `json:"workers_spawned_total" binding:"gte=0"`
	TerminatedTotal int64      `json:"workers_terminated_total" binding:"gte=0"`
	Timestamp       *time.Time `json:"timestamp" binding:"required"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.rejected.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.svc.Ingest(model.Snapshot{
		NodeID:          req.NodeID,
		WorkerCount:     *req.WorkerCount,
		ReporterVersion: req.ReporterVersion,
		SpawnedTotal:    req.SpawnedTotal,
		TerminatedTotal: req.TerminatedTotal,
		Timestamp:       *req.Timestamp,
	})
	switch {
	case err == nil:
		s.accepted.Inc()
		c.JSON(http.StatusOK, gin.H{"applied": true})
	case errors.Is(err, ingest.ErrStaleDuplicate):
		s.duplicates.Inc()
		c.JSON(http.StatusOK, gin.H{"applied": false, "duplicate": true})
	case errors.Is(err, ingest.ErrInvalidSnapshot):
		s.rejected.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ingest.ErrPersistence):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	default:
		s.log.Error("ingest failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.QueryCurrent())
}

func (s *Server) handleHistory(c *gin.Context) {
	streamID := c.Param("stream")

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339"})
			return
		}
		since = parsed
	}

	points, err := s.svc.FetchHistory(streamID, since)
	if err != nil {
		if errors.Is(err, store.ErrUnknownStream) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.log.Error("history fetch failed", slog.String("stream", streamID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stream": streamID, "points": points})
}

func (s *Server) handleListNodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"nodes": s.svc.ListNodes()})
}

func (s *Server) handleDeleteNode(c *gin.Context) {
	nodeID := c.Param("id")
	if err := s.svc.DeleteNode(nodeID); err != nil {
		if errors.Is(err, ingest.ErrUnknownNode) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
		return
	}
	s.log.Info("node deleted", slog.String("node", nodeID))
	c.JSON(http.StatusOK, gin.H{"deleted": nodeID})
}

func (s *Server) handleFlush(c *gin.Context) {
	if err := s.svc.Flush(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flushed": true})
}

func (s *Server) handleHealth(c *gin.Context) {
	h := s.svc.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"nodes":         h.Nodes,
		"global_points": h.GlobalPoints,
		"storage":       h.Storage,
	})
}
