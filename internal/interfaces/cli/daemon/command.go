// Package daemon implements the long-running sync daemon command.
package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turnernet/tracksync/internal/application/app"
	"github.com/turnernet/tracksync/internal/infrastructure/pubsub"
	"github.com/turnernet/tracksync/internal/infrastructure/scheduler"
	"github.com/turnernet/tracksync/internal/shared/goroutine"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// NewCommand creates the daemon command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the background sync daemon",
		Long:  `Run tracksync as a daemon that synchronizes the local cache on a fixed interval until interrupted.`,
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	log := application.Logger

	if !application.Session.HasCredentials() {
		return fmt.Errorf("no credentials stored; run 'tracksync login' first")
	}

	events, unsubscribe := application.Bus.Subscribe(16)
	defer unsubscribe()
	goroutine.SafeGo(log, "store-event-logger", func() {
		logStoreEvents(events, log)
	})

	manager, err := scheduler.NewManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	interval := application.Config.Sync.Interval
	// One full run should never outlive the gap to the next tick.
	if err := manager.RegisterSyncJob(application.Engine, interval, interval); err != nil {
		return fmt.Errorf("failed to register sync job: %w", err)
	}
	manager.Start()

	log.Infow("daemon started",
		"interval", interval,
		"base_url", application.Config.API.BaseURL,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")
	if err := manager.Stop(); err != nil {
		return err
	}
	return nil
}

func logStoreEvents(events <-chan pubsub.StoreEvent, log logger.Interface) {
	for event := range events {
		log.Infow("store updated",
			"kind", event.Kind,
			"count", event.Count,
			"at", time.Now().Format(time.RFC3339),
		)
	}
}
