package cli

import (
	"github.com/spf13/cobra"
)

// DrinkOptions holds flags for the drink command.
type DrinkOptions struct {
	*RootOptions
	NoSync bool
}

// NewDrinkCommand creates the drink command.
func NewDrinkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DrinkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drink",
		Short: "Record one drink",
		Long: `Record one drink of the configured amount and try to sync it.

A failed sync does not fail the command: the record stays pending and the
error is shown in the status.

Example:
  hydrate drink
  hydrate drink --no-sync --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordDrink(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoSync, "no-sync", false, "record without contacting the collector")

	return cmd
}

func recordDrink(opts *DrinkOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.engine.RecordIntake(ctx)
	if err != nil {
		return a.formatter.Fail(ExitCommandError, CodeStore, "failed to save record", err)
	}

	if !opts.NoSync {
		if err := a.engine.SyncNow(ctx); err != nil {
			a.formatter.VerboseLog("sync failed: %v", err)
		}
		st = a.engine.Status()
	}

	return a.formatter.Success(statusOutput{st})
}
