// Package status implements the sync status command.
package status

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turnernet/tracksync/internal/application/app"
	enginesync "github.com/turnernet/tracksync/internal/application/sync"
)

// NewCommand creates the status command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-collection sync state",
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	out := cmd.OutOrStdout()

	times, err := application.Engine.LastSyncTimes(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load sync metadata: %w", err)
	}

	for _, kind := range enginesync.AllKinds() {
		last := "never"
		if t, ok := times[kind]; ok && t != nil {
			last = t.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-18s last synced: %s\n", kind, last)
	}

	pending, err := application.Pending.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load pending adjustments: %w", err)
	}
	if len(pending) > 0 {
		fmt.Fprintf(out, "\n%d inventory adjustment(s) awaiting retry:\n", len(pending))
		for _, row := range pending {
			reason := ""
			if row.LastError != nil {
				reason = *row.LastError
			}
			fmt.Fprintf(out, "  hardware %s qty %+d (%s)\n", row.HardwareID, row.Quantity, reason)
		}
	}

	if lastErr := application.Engine.LastError(); lastErr != "" {
		fmt.Fprintf(out, "\nlast sync error: %s\n", lastErr)
	}
	return nil
}
