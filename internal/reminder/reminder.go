// Package reminder decides when to show a drink reminder.
//
// Time since the last intake is divided into slots of one reminder interval.
// The scheduler remembers the (record, slot) pair it last notified for and
// shows at most one notification per distinct pair, however often it is
// polled.
//
// Changing the interval mid-cycle changes the slot arithmetic on the very next
// check, which can produce an immediate extra notification for the new, higher
// slot. That is expected.
package reminder

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/notify"
	"github.com/roach88/hydrate/internal/state"
)

// DefaultTitle is the notification title.
const DefaultTitle = "Hydration reminder"

// Checkpoint is the (record, slot) pair most recently handled.
// Slot is only meaningful together with RecordID.
type Checkpoint struct {
	RecordID string
	Slot     int64
}

// Scheduler emits reminder notifications for one State.
//
// Thread-safety: all methods are safe for concurrent use.
type Scheduler struct {
	state  *state.State
	sink   notify.Sink
	logger *slog.Logger

	mu         sync.Mutex
	checkpoint Checkpoint
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates a Scheduler reading st and notifying through sink.
func New(st *state.State, sink notify.Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		state:  st,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkpoint returns the current checkpoint.
func (s *Scheduler) Checkpoint() Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint
}

// Reset moves the checkpoint to slot 0 of recordID. Called after every append.
func (s *Scheduler) Reset(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = Checkpoint{RecordID: recordID}
}

// MaybeTrigger shows a reminder if a new slot has been reached since the last
// intake. It returns true if the sink was invoked.
func (s *Scheduler) MaybeTrigger(now time.Time) bool {
	settings := s.state.Settings()
	if !settings.ReminderEnabled {
		return false
	}
	last, ok := s.state.LastByOccurredAt()
	if !ok {
		return false
	}
	if !notify.Supported(s.sink) {
		return false
	}

	elapsed := now.Sub(last.OccurredAt)
	slot := Slot(elapsed, settings.ReminderInterval())

	s.mu.Lock()
	if slot < 1 {
		s.checkpoint = Checkpoint{RecordID: last.ID}
		s.mu.Unlock()
		return false
	}
	next := Checkpoint{RecordID: last.ID, Slot: slot}
	if s.checkpoint == next {
		s.mu.Unlock()
		return false
	}
	s.checkpoint = next
	s.mu.Unlock()

	shown := s.sink.Show(DefaultTitle, Body(settings, elapsed))
	s.logger.Info("reminder fired", "record_id", last.ID, "slot", slot, "shown", shown)
	return true
}

// NextAt returns the instant the next unnotified slot begins, or false when
// reminders are disabled or no intake has been recorded.
func (s *Scheduler) NextAt(now time.Time) (time.Time, bool) {
	return NextAt(s.state.Settings(), s.state, now)
}

// lastRecorder is the part of State NextAt needs.
type lastRecorder interface {
	LastByOccurredAt() (intake.Record, bool)
}

// NextAt computes the start of the first slot after now for the given
// settings and records.
func NextAt(settings intake.Settings, records lastRecorder, now time.Time) (time.Time, bool) {
	if !settings.ReminderEnabled {
		return time.Time{}, false
	}
	last, ok := records.LastByOccurredAt()
	if !ok {
		return time.Time{}, false
	}
	interval := settings.ReminderInterval()
	slot := Slot(now.Sub(last.OccurredAt), interval)
	if slot < 0 {
		slot = 0
	}
	return last.OccurredAt.Add(time.Duration(slot+1) * interval), true
}

// Slot returns floor(elapsed / interval). A non-positive interval uses the
// default interval.
func Slot(elapsed, interval time.Duration) int64 {
	if interval <= 0 {
		interval = intake.DefaultReminderInterval
	}
	q := int64(elapsed / interval)
	if elapsed < 0 && elapsed%interval != 0 {
		q--
	}
	return q
}

// Body returns the notification body: the custom reminder content when set,
// otherwise a message naming the elapsed time.
func Body(settings intake.Settings, elapsed time.Duration) string {
	if settings.ReminderContent != "" {
		return settings.ReminderContent
	}
	return fmt.Sprintf("It has been %s since your last drink. Time for some water.", FormatElapsed(elapsed))
}

// FormatElapsed renders d as hours and minutes, e.g. "3h05m".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dh%02dm", h, m)
}
