package cli

import (
	"github.com/spf13/cobra"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all records (settings are kept)",
		Long: `Delete every record and the last sync error. Settings are kept.
Records that were never synced are lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			if !opts.Yes {
				return f.Fail(ExitCommandError, CodeUsage, "refusing to reset without --yes", nil)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.engine.Reset(ctx)
			if err != nil {
				return a.formatter.Fail(ExitCommandError, CodeStore, "failed to reset", err)
			}
			return a.formatter.Success(statusOutput{st})
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deleting all records")

	return cmd
}
