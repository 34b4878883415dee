package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dm/fleetmon/internal/client"
	"github.com/dm/fleetmon/internal/engine"
	"github.com/dm/fleetmon/internal/kv"
	"github.com/dm/fleetmon/internal/tui"
)

// decimationCacheTTL is how long the dashboard serves a decimated window
// before recomputing it.
const decimationCacheTTL = time.Second

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Run the terminal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The terminal belongs to the TUI; route logs to a file when asked,
		// otherwise drop them.
		log := slog.New(slog.NewJSONHandler(io.Discard, nil))
		if path := os.Getenv("FLEETMON_LOG"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			log = slog.New(slog.NewJSONHandler(f, nil))
		}

		src, err := client.NewDefaultClient(client.Config{
			BaseURL:        cfg.Dashboard.ServerURL,
			RequestTimeout: cfg.Dashboard.PollInterval.Duration,
		})
		if err != nil {
			return err
		}

		var fallback client.Source
		if cfg.Dashboard.FallbackPath != "" {
			static, err := client.NewStaticSource(cfg.Dashboard.FallbackPath, log)
			if err != nil {
				return fmt.Errorf("open fallback document: %w", err)
			}
			defer static.Close()
			fallback = static
		}

		// A local cache spares a restarted dashboard the full backfill.
		var cache kv.Store
		if cfg.Dashboard.CacheDir != "" {
			db, err := kv.OpenBadger(filepath.Join(cfg.Dashboard.CacheDir, "history"), log)
			if err != nil {
				return fmt.Errorf("open history cache: %w", err)
			}
			defer db.Close()
			cache = db
		}

		pipeline := engine.NewPipeline(src, cache, engine.PipelineConfig{
			Cadence:       cfg.Server.SampleInterval.Duration,
			Budget:        cfg.Dashboard.ChartBudget,
			CacheTTL:      decimationCacheTTL,
			FailThreshold: cfg.Dashboard.FailThreshold,
		}, log, nil)
		if err := pipeline.LoadCache(); err != nil {
			log.Warn("history cache unusable", slog.String("error", err.Error()))
		}

		app := tui.NewApp(pipeline, src, fallback, cfg.Dashboard.PollInterval.Duration)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
		return pipeline.SaveCache()
	},
}
