package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dm/fleetmon/internal/client"
	"github.com/dm/fleetmon/internal/model"
)

// LiveState is one poll's worth of current server state.
type LiveState struct {
	Counters  model.AggregateCounters
	Nodes     []model.NodeStatus
	FetchedAt time.Time
}

// FetchLive calls the stats and nodes endpoints concurrently. If either
// fails, FetchLive returns the first error and no partial state.
func FetchLive(ctx context.Context, src client.Source) (*LiveState, error) {
	var (
		counters model.AggregateCounters
		nodes    []model.NodeStatus
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		counters, err = src.Current(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		nodes, err = src.Nodes(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &LiveState{
		Counters:  counters,
		Nodes:     nodes,
		FetchedAt: time.Now(),
	}, nil
}
