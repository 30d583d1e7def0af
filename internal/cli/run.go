package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrate/internal/status"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reminder and sync timers in the foreground",
		Long: `Run hydrate in the foreground.

Unsynced records are pushed to the collector every sync interval and the
reminder scheduler is checked every reminder check interval. Reminders are
printed to stdout.

Example:
  hydrate run
  hydrate run --data-dir /tmp/hydrate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(rootOpts, cmd)
		},
	}
	return cmd
}

func runEngine(opts *RootOptions, cmd *cobra.Command) error {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	slog.SetDefault(a.logger)

	a.engine.OnStatus(func(st status.Status) {
		a.logger.Debug("status changed",
			"records", st.RecordCount,
			"pending", st.PendingCount,
			"today_ml", st.TodayTotalMl,
			"last_sync_error", st.LastSyncError,
		)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "hydrate running (data: %s). Press Ctrl-C to stop.\n", a.cfg.DataDir)

	if err := a.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	a.logger.Info("engine stopped gracefully")
	return nil
}
