package cli

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrate/internal/intake"
)

// SettingsSetOptions holds flags for the settings set command.
type SettingsSetOptions struct {
	*RootOptions
	UserID          string
	Environment     string
	Reminders       bool
	IntervalHours   float64
	ReminderContent string
	MinimizeToTray  bool
	AutoLaunch      bool
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
	}
	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))
	return cmd
}

func newSettingsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.formatter.Success(settingsOutput{a.engine.Status().Settings})
		},
	}
}

func newSettingsSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long: `Change one or more settings. Only the flags given are changed.

An interval that is not a positive number of hours keeps the previous value.
An environment other than dev or prod keeps the previous value; packaged
builds always use prod.

Example:
  hydrate settings set --user-id alice --env prod
  hydrate settings set --interval-hours 1.5 --content "Time for water"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSettings(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "user id sent to the collector")
	cmd.Flags().StringVar(&opts.Environment, "env", "", "collector environment (dev|prod)")
	cmd.Flags().BoolVar(&opts.Reminders, "reminders", true, "enable reminders")
	cmd.Flags().Float64Var(&opts.IntervalHours, "interval-hours", 0, "reminder interval in hours")
	cmd.Flags().StringVar(&opts.ReminderContent, "content", "", "custom reminder text (empty for the default)")
	cmd.Flags().BoolVar(&opts.MinimizeToTray, "minimize-to-tray", true, "minimize to tray on close")
	cmd.Flags().BoolVar(&opts.AutoLaunch, "auto-launch", false, "launch at login")

	return cmd
}

// settingsPatch builds a patch from the flags that were set.
func settingsPatch(opts *SettingsSetOptions, cmd *cobra.Command) intake.SettingsPatch {
	var p intake.SettingsPatch
	flags := cmd.Flags()
	if flags.Changed("user-id") {
		p.UserID = &opts.UserID
	}
	if flags.Changed("env") {
		env := intake.Environment(opts.Environment)
		p.Environment = &env
	}
	if flags.Changed("reminders") {
		p.ReminderEnabled = &opts.Reminders
	}
	if flags.Changed("interval-hours") {
		if ms, ok := hoursToMs(opts.IntervalHours); ok {
			p.ReminderIntervalMs = &ms
		}
	}
	if flags.Changed("content") {
		p.ReminderContent = &opts.ReminderContent
	}
	if flags.Changed("minimize-to-tray") {
		p.MinimizeToTray = &opts.MinimizeToTray
	}
	if flags.Changed("auto-launch") {
		p.AutoLaunch = &opts.AutoLaunch
	}
	return p
}

// hoursToMs converts an interval in hours. Non-positive, NaN and infinite
// values are rejected.
func hoursToMs(h float64) (int64, bool) {
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return 0, false
	}
	ms := int64(math.Round(h * 60 * 60 * 1000))
	if ms <= 0 {
		return 0, false
	}
	return ms, true
}

func setSettings(opts *SettingsSetOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.engine.UpdateSettings(ctx, settingsPatch(opts, cmd))
	if err != nil {
		return a.formatter.Fail(ExitCommandError, CodeStore, "failed to save settings", err)
	}
	return a.formatter.Success(settingsOutput{st.Settings})
}
