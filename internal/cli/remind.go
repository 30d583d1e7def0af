package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrate/internal/engine"
)

// NewRemindCommand creates the remind command group.
func NewRemindCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Reminder operations",
	}
	cmd.AddCommand(newRemindTestCommand(rootOpts))
	cmd.AddCommand(newRemindCheckCommand(rootOpts))
	return cmd
}

func newRemindTestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Show a reminder now (not available in packaged builds)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.TestReminder(); err != nil {
				msg := "test reminder failed"
				if errors.Is(err, engine.ErrEnvironmentLocked) {
					msg = "test reminder refused"
				}
				return a.formatter.Fail(ExitFailure, CodeReminder, msg, err)
			}
			return nil
		},
	}
}

// reminderCheckResult is the output of remind check.
type reminderCheckResult struct {
	Fired bool `json:"fired"`
}

func (r reminderCheckResult) String() string {
	if r.Fired {
		return "reminder shown"
	}
	return "no reminder due"
}

func newRemindCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate the reminder scheduler once",
		Long: `Evaluate the reminder scheduler once and show a reminder if one is due.

The slot checkpoint is kept in memory only, so a one-shot check shows a
reminder whenever at least one interval has passed since the last drink.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.formatter.Success(reminderCheckResult{Fired: a.engine.CheckReminder()})
		},
	}
}
