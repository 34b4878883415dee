// Package config loads fleetmon configuration: built-in defaults, overlaid
// by an optional YAML file, overlaid by FLEETMON_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can say "60s" or "7d"-style values
// that time.ParseDuration accepts.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string or an integer nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// ServerConfig tunes the ingestion server.
type ServerConfig struct {
	Listen          string   `yaml:"listen"`
	DataDir         string   `yaml:"data_dir"`
	SampleInterval  Duration `yaml:"sample_interval"`
	FlushEvery      int      `yaml:"flush_every"`
	Liveness        Duration `yaml:"liveness"`
	NodeRetention   Duration `yaml:"node_retention"`
	GlobalRetention Duration `yaml:"global_retention"`
	GlobalMaxPoints int      `yaml:"global_max_points"`
}

// DashboardConfig tunes the terminal dashboard.
type DashboardConfig struct {
	ServerURL     string   `yaml:"server_url"`
	FallbackPath  string   `yaml:"fallback_path"`
	CacheDir      string   `yaml:"cache_dir"`
	PollInterval  Duration `yaml:"poll_interval"`
	ChartBudget   int      `yaml:"chart_budget"`
	FailThreshold int      `yaml:"fail_threshold"`
}

// Config is the full fleetmon configuration tree.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:          ":8080",
			DataDir:         "/var/lib/fleetmon",
			SampleInterval:  Duration{60 * time.Second},
			FlushEvery:      10,
			Liveness:        Duration{2 * time.Hour},
			NodeRetention:   Duration{7 * 24 * time.Hour},
			GlobalRetention: Duration{365 * 24 * time.Hour},
			GlobalMaxPoints: 100_000,
		},
		Dashboard: DashboardConfig{
			ServerURL:     "http://localhost:8080",
			PollInterval:  Duration{5 * time.Second},
			ChartBudget:   700,
			FailThreshold: 2,
		},
	}
}

// Load builds the effective configuration. path may be empty to skip the
// file layer; a named file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays FLEETMON_* variables. Unset variables leave the value
// alone; malformed ones are ignored rather than fatal so a bad override
// cannot take the server down.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FLEETMON_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("FLEETMON_DATA_DIR"); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv("FLEETMON_SAMPLE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.SampleInterval = Duration{d}
		}
	}
	if v := os.Getenv("FLEETMON_SERVER_URL"); v != "" {
		cfg.Dashboard.ServerURL = v
	}
	if v := os.Getenv("FLEETMON_FALLBACK_PATH"); v != "" {
		cfg.Dashboard.FallbackPath = v
	}
	if v := os.Getenv("FLEETMON_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dashboard.PollInterval = Duration{d}
		}
	}
	if v := os.Getenv("FLEETMON_CHART_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Dashboard.ChartBudget = n
		}
	}
}

func (c Config) validate() error {
	if c.Server.SampleInterval.Duration <= 0 {
		return fmt.Errorf("sample_interval must be positive")
	}
	if c.Server.NodeRetention.Duration <= 0 || c.Server.GlobalRetention.Duration <= 0 {
		return fmt.Errorf("retention horizons must be positive")
	}
	if c.Dashboard.ChartBudget <= 0 {
		return fmt.Errorf("chart_budget must be positive")
	}
	return nil
}
