package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newSyncCmd creates the 'sync' subcommand: one full cycle, waiting
// for all queued archival work before exiting. Useful under cron and
// for debugging a deployment.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Runs a single sync cycle and waits for archival to finish",
		RunE:  runSyncOnce,
	}
}

func runSyncOnce(_ *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Pool().Start(ctx)
	if err := a.Runner().RunOnce(ctx); err != nil {
		return err
	}
	// Close drains the pool, so queued archival tasks complete (or are
	// canceled by a signal) before the process exits.
	return nil
}
