// Package login implements credential management commands.
package login

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/turnernet/tracksync/internal/application/app"
	apperrors "github.com/turnernet/tracksync/internal/shared/errors"
)

// NewCommand creates the login command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key and establish a session",
		Long:  `Prompt for a tracker API key, store it in the OS keyring, and exchange it for a token session.`,
		RunE:  run,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Clear all stored credentials",
		RunE:  runLogout,
	})

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	apiKey, err := readAPIKey()
	if err != nil {
		return err
	}
	if apiKey == "" {
		return apperrors.NewValidationError("API key must not be empty")
	}

	if err := application.Session.ExchangeAPIKey(cmd.Context(), apiKey); err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Signed in. Credentials stored in the system keyring.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Session.ClearCredentials(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Credentials cleared.")
	return nil
}

// readAPIKey reads the key without echo when stdin is a terminal, falling
// back to a plain line read for piped input.
func readAPIKey() (string, error) {
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "API key: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
