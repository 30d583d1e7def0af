package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/hydrate/internal/syncer"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending records to the collector now",
		Long: `Run one sync pass.

Records are sent oldest first. The pass stops at the first failure; records
delivered before it stay synced. Exits 1 if the pass failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.SyncNow(ctx); err != nil {
				msg := "sync failed"
				if syncer.IsMissingUserID(err) {
					msg = "sync failed: set a user id with 'hydrate settings set --user-id'"
				}
				return a.formatter.Fail(ExitFailure, CodeSync, msg, err)
			}
			return a.formatter.Success(statusOutput{a.engine.Status()})
		},
	}
}
