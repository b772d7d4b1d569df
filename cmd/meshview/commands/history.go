package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		prune time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent mesh loads",
		Long: `List recent loads from the history database, most recent first.

Requires a store path in the config file.`,
		Example: `  # Show the last 20 loads
  meshview history -c meshview.yaml

  # Show more, machine-readable
  meshview history -c meshview.yaml --limit 100 --json

  # Drop entries older than 30 days
  meshview history -c meshview.yaml --prune 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit, prune)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")
	cmd.Flags().DurationVar(&prune, "prune", 0, "also delete entries older than this age")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, prune time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("no history store configured; set store.path in the config file")
	}

	ctx := cmd.Context()

	store, err := stores.NewSQLiteStore(stores.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if prune > 0 {
		pruned, err := store.PruneLoads(ctx, time.Now().UTC().Add(-prune))
		if err != nil {
			return err
		}
		if pruned > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d entries\n", pruned)
		}
	}

	records, err := store.ListLoads(ctx, limit, 0)
	if err != nil {
		return err
	}

	if jsonOutput {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No loads recorded")
		return nil
	}

	fmt.Printf("%-20s  %-30s  %-14s  %-8s  %10s  %8s\n",
		"LOADED AT", "FILE", "FORMAT", "STATUS", "TRIANGLES", "TIME")
	for _, r := range records {
		fmt.Printf("%-20s  %-30s  %-14s  %-8s  %10d  %6dms\n",
			r.LoadedAt.Format("2006-01-02 15:04:05"),
			truncate(r.FileName, 30), r.Format, r.Status, r.Triangles, r.DurationMS)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
