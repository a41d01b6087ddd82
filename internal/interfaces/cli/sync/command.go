// Package sync implements the one-shot sync command.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turnernet/tracksync/internal/application/app"
	enginesync "github.com/turnernet/tracksync/internal/application/sync"
	apperrors "github.com/turnernet/tracksync/internal/shared/errors"
)

var (
	kindFlag    string
	timeoutFlag time.Duration
)

// NewCommand creates the sync command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass",
		Long:  `Synchronize the local cache against the tracker API once and exit. Use --kind to sync a single collection.`,
		RunE:  run,
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Sync only one collection (tickets, clients, hardware, inventory-events)")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 10*time.Minute, "Abort the run after this long")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	if !application.Session.HasCredentials() {
		return fmt.Errorf("no credentials stored; run 'tracksync login' first")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	start := time.Now()
	if kindFlag != "" {
		kind := enginesync.Kind(kindFlag)
		if !validKind(kind) {
			return apperrors.NewValidationError("unknown collection", kindFlag)
		}
		if err := application.Engine.Sync(ctx, kind); err != nil {
			return fmt.Errorf("sync %s failed: %w", kind, err)
		}
	} else {
		if err := application.Engine.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	}

	application.Logger.Infow("sync completed", "elapsed", time.Since(start))
	return nil
}

func validKind(kind enginesync.Kind) bool {
	for _, k := range enginesync.AllKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
