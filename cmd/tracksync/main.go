package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turnernet/tracksync/internal/interfaces/cli/daemon"
	"github.com/turnernet/tracksync/internal/interfaces/cli/login"
	"github.com/turnernet/tracksync/internal/interfaces/cli/status"
	synccmd "github.com/turnernet/tracksync/internal/interfaces/cli/sync"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tracksync",
		Short: "Tracksync - offline cache synchronizer for the tracker API",
		Long:  `Tracksync keeps a local cache of tickets, clients, hardware, and inventory events in sync with the tracker API.`,
	}

	rootCmd.AddCommand(
		daemon.NewCommand(),
		synccmd.NewCommand(),
		login.NewCommand(),
		status.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
