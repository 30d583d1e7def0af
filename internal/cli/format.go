package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/hydrate/internal/status"
)

func formatStatus(st status.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today:          %d ml\n", st.TodayTotalMl)
	fmt.Fprintf(&b, "Last drink:     %s\n", formatTime(st.LastDrankAt))
	fmt.Fprintf(&b, "Records:        %d (%d pending sync)\n", st.RecordCount, st.PendingCount)
	if st.Settings.ReminderEnabled {
		fmt.Fprintf(&b, "Next reminder:  %s\n", formatTime(st.NextReminderAt))
	} else {
		b.WriteString("Next reminder:  off\n")
	}
	if st.LastSyncError != "" {
		fmt.Fprintf(&b, "Sync error:     %s\n", st.LastSyncError)
	}
	b.WriteString(formatSettings(st.Settings))
	return strings.TrimRight(b.String(), "\n")
}

func formatSettings(s status.Settings) string {
	var b strings.Builder
	user := s.UserID
	if user == "" {
		user = "(not set)"
	}
	env := string(s.Environment)
	if s.EnvironmentLocked {
		env += " (locked)"
	}
	fmt.Fprintf(&b, "User:           %s\n", user)
	fmt.Fprintf(&b, "Environment:    %s\n", env)
	fmt.Fprintf(&b, "Reminders:      %s every %s\n", onOff(s.ReminderEnabled), formatHours(s.ReminderInterval()))
	if s.ReminderContent != "" {
		fmt.Fprintf(&b, "Reminder text:  %s\n", s.ReminderContent)
	}
	fmt.Fprintf(&b, "Minimize tray:  %s\n", onOff(s.MinimizeToTray))
	fmt.Fprintf(&b, "Auto launch:    %s", onOff(s.AutoLaunch))
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// formatHours renders d in hours, e.g. "2h" or "1.5h".
func formatHours(d time.Duration) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", d.Hours()), "0"), ".") + "h"
}
