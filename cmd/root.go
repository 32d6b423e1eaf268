// Package cmd defines and implements the CLI commands for the
// gridtracker executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artistgrid/gridtracker/internal/app"
	"github.com/artistgrid/gridtracker/internal/config"
	"github.com/artistgrid/gridtracker/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridtracker",
		Short: "Tracks artist sheet exports and archives them to the Wayback Machine.",
		Long: `gridtracker periodically syncs the remote artist catalog, downloads
sheet exports for entries that changed, submits each materialized file
to the Wayback Machine (at most once per day per file), and serves the
resulting file tree over a minimal read-only browser.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults apply without one)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSyncCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildApp loads config, constructs the logger and wires the services.
func buildApp() (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(cfg, logger), nil
}
