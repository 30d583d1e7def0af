package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/notify"
	"github.com/roach88/hydrate/internal/reminder"
	"github.com/roach88/hydrate/internal/state"
	"github.com/roach88/hydrate/internal/status"
	"github.com/roach88/hydrate/internal/syncer"
)

const (
	// DefaultSyncInterval is the period of the sync timer.
	DefaultSyncInterval = 5 * time.Minute

	// DefaultReminderCheckInterval is the period of the reminder check.
	DefaultReminderCheckInterval = time.Minute
)

// Syncer runs one sync pass. Implemented by *syncer.Syncer.
type Syncer interface {
	RunPass(ctx context.Context) error
}

// Engine is the hydrate controller.
//
// Thread-safety model:
//   - RecordIntake, UpdateSettings, Reset, Status, TestReminder, CheckReminder,
//     TriggerSync, SyncNow, OnStatus: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	state     *state.State
	syncer    Syncer
	sink      notify.Sink
	reminders *reminder.Scheduler
	queue     *triggerQueue
	seq       sequence

	amountMl              int
	syncInterval          time.Duration
	reminderCheckInterval time.Duration
	loc                   *time.Location
	packaged              bool
	logger                *slog.Logger

	listenersMu sync.RWMutex
	listeners   []func(status.Status)
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithAmountMl sets the amount recorded by RecordIntake.
// Non-positive values keep intake.DefaultAmountMl.
func WithAmountMl(ml int) EngineOption {
	return func(e *Engine) {
		if ml > 0 {
			e.amountMl = ml
		}
	}
}

// WithSyncInterval sets the sync timer period.
//
// Default: 5 minutes (DefaultSyncInterval).
func WithSyncInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.syncInterval = d
		}
	}
}

// WithReminderCheckInterval sets how often the reminder scheduler is polled.
//
// Default: 60 seconds (DefaultReminderCheckInterval).
func WithReminderCheckInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.reminderCheckInterval = d
		}
	}
}

// WithLocation sets the zone used for local midnight. Default: time.Local.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		e.loc = loc
	}
}

// WithPackaged marks the build as packaged. The effective environment is
// then prod and test reminders are refused.
func WithPackaged(packaged bool) EngineOption {
	return func(e *Engine) {
		e.packaged = packaged
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over st. Sync passes run through sy and reminders
// are shown through sink.
func New(st *state.State, sy Syncer, sink notify.Sink, opts ...EngineOption) *Engine {
	e := &Engine{
		state:                 st,
		syncer:                sy,
		sink:                  sink,
		queue:                 newTriggerQueue(),
		amountMl:              intake.DefaultAmountMl,
		syncInterval:          DefaultSyncInterval,
		reminderCheckInterval: DefaultReminderCheckInterval,
		loc:                   time.Local,
		logger:                slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.reminders = reminder.New(st, sink, reminder.WithLogger(e.logger))
	if last, ok := st.LastByOccurredAt(); ok {
		e.reminders.Reset(last.ID)
	}
	st.OnChange(e.publish)
	return e
}

// OnStatus registers fn to receive the new Status after every state change.
func (e *Engine) OnStatus(fn func(status.Status)) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) publish() {
	e.listenersMu.RLock()
	listeners := make([]func(status.Status), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.RUnlock()

	if len(listeners) == 0 {
		return
	}
	st := e.Status()
	for _, fn := range listeners {
		fn(st)
	}
}

// Status projects the current state.
func (e *Engine) Status() status.Status {
	return status.Project(e.state.Snapshot(), status.Options{
		Packaged: e.packaged,
		Location: e.loc,
	}, e.state.Now())
}

// Reminders returns the reminder scheduler.
func (e *Engine) Reminders() *reminder.Scheduler {
	return e.reminders
}

// RecordIntake appends a record, resets the reminder checkpoint and submits
// a sync trigger without waiting for it.
//
// A persistence error is returned together with the Status; the record is
// kept in memory either way.
func (e *Engine) RecordIntake(ctx context.Context) (status.Status, error) {
	rec, err := e.state.Append(ctx, e.amountMl)
	e.reminders.Reset(rec.ID)
	if terr := e.TriggerSync(ReasonAppend); terr != nil {
		e.logger.Debug("sync trigger not submitted", "error", terr)
	}
	if err != nil {
		return e.Status(), fmt.Errorf("record intake: %w", err)
	}
	return e.Status(), nil
}

// UpdateSettings applies patch and returns the new Status.
func (e *Engine) UpdateSettings(ctx context.Context, patch intake.SettingsPatch) (status.Status, error) {
	if _, err := e.state.UpdateSettings(ctx, patch); err != nil {
		return e.Status(), fmt.Errorf("update settings: %w", err)
	}
	return e.Status(), nil
}

// Reset clears all records and the last sync error. Settings are kept.
func (e *Engine) Reset(ctx context.Context) (status.Status, error) {
	err := e.state.Reset(ctx)
	e.reminders.Reset("")
	if err != nil {
		return e.Status(), fmt.Errorf("reset: %w", err)
	}
	return e.Status(), nil
}

// TestReminder shows a reminder immediately, bypassing slot checks.
func (e *Engine) TestReminder() error {
	if e.packaged {
		return ErrEnvironmentLocked
	}
	if !notify.Supported(e.sink) {
		return ErrNotificationsUnsupported
	}

	settings := e.state.Settings()
	var elapsed time.Duration
	if last, ok := e.state.LastByOccurredAt(); ok {
		elapsed = e.state.Now().Sub(last.OccurredAt)
	}
	if !e.sink.Show(reminder.DefaultTitle, reminder.Body(settings, elapsed)) {
		return ErrNotificationsUnsupported
	}
	return nil
}

// CheckReminder evaluates the reminder scheduler at the current time.
func (e *Engine) CheckReminder() bool {
	return e.reminders.MaybeTrigger(e.state.Now())
}

// TriggerSync submits a sync trigger for the worker.
// Returns ErrStopped once Run has returned.
func (e *Engine) TriggerSync(reason TriggerReason) error {
	t := Trigger{Seq: e.seq.Next(), Reason: reason}
	if !e.queue.Enqueue(t) {
		return ErrStopped
	}
	e.logger.Debug("sync triggered", "seq", t.Seq, "reason", string(reason))
	return nil
}

// SyncNow runs a sync pass on the calling goroutine.
// Returns syncer.ErrPassInFlight if the worker is mid-pass.
func (e *Engine) SyncNow(ctx context.Context) error {
	return e.syncer.RunPass(ctx)
}

// PendingTriggers returns 1 if a sync trigger is waiting for the worker.
func (e *Engine) PendingTriggers() int {
	return e.queue.Len()
}

// Run starts the sync worker and the timers.
// Blocks until ctx is cancelled, then waits for the worker to exit.
func (e *Engine) Run(ctx context.Context) error {
	if e.queue.Closed() {
		return ErrStopped
	}
	e.logger.Info("engine starting",
		"sync_interval", e.syncInterval.String(),
		"reminder_check_interval", e.reminderCheckInterval.String(),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.work(ctx)
	}()

	syncTicker := time.NewTicker(e.syncInterval)
	defer syncTicker.Stop()
	reminderTicker := time.NewTicker(e.reminderCheckInterval)
	defer reminderTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			wg.Wait()
			return ctx.Err()

		case <-syncTicker.C:
			_ = e.TriggerSync(ReasonTimer)

		case <-reminderTicker.C:
			e.CheckReminder()
		}
	}
}

// work is the sync worker loop. One pass per dequeued trigger.
func (e *Engine) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if t, ok := e.queue.TryDequeue(); ok {
			e.runPass(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed.
			if e.queue.Closed() && e.queue.Len() == 0 {
				return
			}
		}
	}
}

func (e *Engine) runPass(ctx context.Context, t Trigger) {
	err := e.syncer.RunPass(ctx)
	switch {
	case err == nil:
		e.logger.Debug("sync pass done", "seq", t.Seq, "reason", string(t.Reason), "merged", t.Merged)
	case errors.Is(err, syncer.ErrPassInFlight):
		e.logger.Debug("sync pass skipped", "seq", t.Seq, "reason", string(t.Reason))
	default:
		// Failures are already recorded in lastSyncError; the next trigger retries.
		e.logger.Debug("sync pass failed", "seq", t.Seq, "reason", string(t.Reason), "error", err)
	}
}
