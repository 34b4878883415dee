package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dm/fleetmon/internal/client"
	"github.com/dm/fleetmon/internal/format"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations against a running server",
}

var adminNodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List known nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := adminClient()
		if err != nil {
			return err
		}
		defer cancel()

		nodes, err := c.Nodes(ctx)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Println("no nodes")
			return nil
		}

		now := time.Now()
		for _, n := range nodes {
			state := "offline"
			if n.Online {
				state = "online"
			}
			fmt.Printf("%-32s  %4d workers  %-8s  %s  %s\n",
				format.TruncateID(n.NodeID, 32), n.WorkerCount, state, n.ReporterVersion, format.FormatAgo(n.LastSeen, now))
		}
		return nil
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <node-id>",
	Short: "Remove a node's snapshot and history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := adminClient()
		if err != nil {
			return err
		}
		defer cancel()

		if err := c.DeleteNode(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var adminFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Ask the server to persist its state now",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := adminClient()
		if err != nil {
			return err
		}
		defer cancel()

		if err := c.Flush(ctx); err != nil {
			return err
		}
		fmt.Println("flushed")
		return nil
	},
}

func adminClient() (*client.DefaultClient, context.Context, context.CancelFunc, error) {
	c, err := client.NewDefaultClient(client.Config{
		BaseURL:        cfg.Dashboard.ServerURL,
		RequestTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	return c, ctx, cancel, nil
}

func init() {
	adminCmd.AddCommand(adminNodesCmd, adminDeleteCmd, adminFlushCmd)
}
