// Package status projects the hydrate document into the view shown to users.
//
// Project is pure: it reads a document snapshot and returns a Status without
// touching state, so it is safe to call at any frequency.
package status

import (
	"time"

	"github.com/roach88/hydrate/internal/eventlog"
	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/reminder"
)

// Status is the user-facing summary of the document.
type Status struct {
	Now            time.Time  `json:"now"`
	LastDrankAt    *time.Time `json:"lastDrankAt"`
	TodayTotalMl   int        `json:"todayTotal"`
	PendingCount   int        `json:"pendingCount"`
	RecordCount    int        `json:"recordCount"`
	Settings       Settings   `json:"settings"`
	LastSyncError  string     `json:"lastSyncError"`
	NextReminderAt *time.Time `json:"nextReminderAt"`
}

// Settings echoes the stored settings with the effective environment.
type Settings struct {
	intake.Settings

	// EnvironmentLocked is true when a packaged build forces prod.
	EnvironmentLocked bool `json:"environmentLocked"`
}

// Options carries the inputs that do not live in the document.
type Options struct {
	// Packaged forces the effective environment to prod.
	Packaged bool

	// Location defines local midnight for TodayTotalMl. Nil means time.Local.
	Location *time.Location
}

// Project computes the Status of doc at now.
func Project(doc intake.Document, opts Options, now time.Time) Status {
	log := eventlog.New(doc.Records)

	st := Status{
		Now:           now,
		TodayTotalMl:  log.TotalSince(intake.StartOfDay(now, opts.Location)),
		PendingCount:  log.PendingCount(),
		RecordCount:   log.Len(),
		LastSyncError: doc.LastSyncError,
	}

	if last, ok := log.LastByOccurredAt(); ok {
		at := last.OccurredAt
		st.LastDrankAt = &at
	}

	settings := doc.Settings
	settings.Environment = intake.EffectiveEnvironment(settings.Environment, opts.Packaged)
	st.Settings = Settings{Settings: settings, EnvironmentLocked: opts.Packaged}

	if next, ok := reminder.NextAt(doc.Settings, log, now); ok {
		st.NextReminderAt = &next
	}
	return st
}
