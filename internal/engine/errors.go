package engine

import "errors"

var (
	// ErrEnvironmentLocked is returned by TestReminder in packaged builds.
	ErrEnvironmentLocked = errors.New("test reminders are disabled in packaged builds")

	// ErrNotificationsUnsupported is returned by TestReminder when no sink
	// can display notifications.
	ErrNotificationsUnsupported = errors.New("notifications are not supported")

	// ErrStopped is returned when a trigger is submitted after Run returned.
	ErrStopped = errors.New("engine stopped")
)
