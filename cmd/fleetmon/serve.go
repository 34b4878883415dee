package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dm/fleetmon/internal/ingest"
	"github.com/dm/fleetmon/internal/kv"
	"github.com/dm/fleetmon/internal/server"
	"github.com/dm/fleetmon/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion and query server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(log)

		db, err := kv.OpenBadger(filepath.Join(cfg.Server.DataDir, "state"), log)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer db.Close()

		snaps := store.NewSnapshotStore(cfg.Server.Liveness.Duration, nil)
		hist := store.NewHistoryStore(store.HistoryConfig{
			NodeRetention:   cfg.Server.NodeRetention.Duration,
			GlobalRetention: cfg.Server.GlobalRetention.Duration,
			GlobalMaxPoints: cfg.Server.GlobalMaxPoints,
		}, nil)

		svc := ingest.New(snaps, hist, db, ingest.Config{
			SampleInterval: cfg.Server.SampleInterval.Duration,
			FlushEvery:     cfg.Server.FlushEvery,
		}, log, nil)

		if err := svc.Restore(); err != nil {
			return fmt.Errorf("restore state: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// The sampler runs until shutdown and flushes on the way out.
		done := make(chan struct{})
		go func() {
			defer close(done)
			svc.Run(ctx)
		}()

		srv := server.New(svc, log)
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Run(cfg.Server.Listen)
		}()

		select {
		case err := <-errCh:
			stop()
			<-done
			return err
		case <-ctx.Done():
			log.Info("shutting down")
			<-done
			return nil
		}
	},
}
