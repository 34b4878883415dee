// Package client provides the HTTP client the dashboard and the reporter use
// to talk to a fleetmon server.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dm/fleetmon/internal/model"
)

// Source is what the dashboard consumes: current aggregate counters, history
// streams, and node status. DefaultClient implements it against a live
// server; StaticSource implements it from a local document.
type Source interface {
	Current(ctx context.Context) (model.AggregateCounters, error)
	History(ctx context.Context, stream string, since time.Time) ([]model.HistoryPoint, error)
	Nodes(ctx context.Context) ([]model.NodeStatus, error)
	BaseURL() string
}

// Config holds configuration for DefaultClient.
type Config struct {
	BaseURL            string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements Source using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	config Config
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg Config) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	return &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		config: cfg,
	}, nil
}

// BaseURL returns the configured base URL of the fleetmon server.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

const maxResponseBytes = 32 * 1024 * 1024 // far above any real fleetmon response

// do performs a request to the given path (relative to BaseURL) with an
// optional JSON body. Returns the response body bytes; a non-2xx status is an
// error carrying a truncated body excerpt.
func (c *DefaultClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func (c *DefaultClient) doGet(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Ping checks connectivity by calling /health with a 1s timeout.
func (c *DefaultClient) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	_, err := c.doGet(pingCtx, endpointHealth)
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
