package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 60*time.Second, cfg.Server.SampleInterval.Duration)
	assert.Equal(t, 7*24*time.Hour, cfg.Server.NodeRetention.Duration)
	assert.Equal(t, 700, cfg.Dashboard.ChartBudget)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":9090"
  sample_interval: 30s
dashboard:
  server_url: "http://stats.internal:9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.SampleInterval.Duration)
	assert.Equal(t, "http://stats.internal:9090", cfg.Dashboard.ServerURL)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Server.FlushEvery)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen: \":9090\"\n"), 0o644))

	t.Setenv("FLEETMON_LISTEN", ":7070")
	t.Setenv("FLEETMON_SAMPLE_INTERVAL", "15s")
	t.Setenv("FLEETMON_CHART_BUDGET", "500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, 15*time.Second, cfg.Server.SampleInterval.Duration)
	assert.Equal(t, 500, cfg.Dashboard.ChartBudget)
}

func TestLoad_MalformedEnvIsIgnored(t *testing.T) {
	t.Setenv("FLEETMON_SAMPLE_INTERVAL", "soon")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Server.SampleInterval.Duration)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	path2 := filepath.Join(t.TempDir(), "badduration.yaml")
	require.NoError(t, os.WriteFile(path2, []byte("server:\n  sample_interval: eventually\n"), 0o644))
	_, err = Load(path2)
	assert.Error(t, err)
}

func TestValidate_RejectsNonPositiveCadence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  sample_interval: 0s\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
