// Package state owns the in-memory hydrate document.
//
// State is the single owner of records, settings and the last sync error.
// Every component operates on the same *State by reference. All mutations are
// serialized behind one mutex, and every mutating method writes the whole
// document through store.Persistence before it returns, so a later read never
// observes a change that has not been handed to persistence.
//
// Network I/O never happens while the mutex is held.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/hydrate/internal/eventlog"
	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/store"
)

// State is the shared application state.
type State struct {
	mu            sync.Mutex
	log           *eventlog.Log
	settings      intake.Settings
	lastSyncError string

	persist store.Persistence
	clock   intake.Clock
	ids     intake.IDGenerator
	logger  *slog.Logger

	listenersMu sync.RWMutex
	listeners   []func()
}

// Option configures a State.
type Option func(*State)

// WithClock sets the clock used to stamp new records. Default: intake.SystemClock.
func WithClock(c intake.Clock) Option {
	return func(s *State) {
		s.clock = c
	}
}

// WithIDGenerator sets the record id generator. Default: intake.UUIDv7Generator.
func WithIDGenerator(g intake.IDGenerator) Option {
	return func(s *State) {
		s.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		s.logger = l
	}
}

// New creates a State from an already loaded document.
func New(doc intake.Document, p store.Persistence, opts ...Option) *State {
	doc = doc.Clone()
	s := &State{
		log:           eventlog.New(doc.Records),
		settings:      intake.NormalizeSettings(doc.Settings),
		lastSyncError: doc.LastSyncError,
		persist:       p,
		clock:         intake.SystemClock{},
		ids:           intake.UUIDv7Generator{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the document from p, falling back to defaults on failure, and
// returns a State bound to p.
func Load(ctx context.Context, p store.Persistence, opts ...Option) *State {
	s := New(intake.DefaultDocument(), p, opts...)
	doc := store.LoadOrDefault(ctx, p, s.logger)

	s.mu.Lock()
	s.log = eventlog.New(doc.Clone().Records)
	s.settings = intake.NormalizeSettings(doc.Settings)
	s.lastSyncError = doc.LastSyncError
	s.mu.Unlock()
	return s
}

// OnChange registers fn to run after every persisted mutation.
// fn runs outside the state lock and may read from the State.
func (s *State) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *State) notify() {
	s.listenersMu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// Append records a new intake of amountMl stamped with the clock's now.
// The last sync error is cleared, matching a fresh attempt to sync.
func (s *State) Append(ctx context.Context, amountMl int) (intake.Record, error) {
	s.mu.Lock()
	rec := s.log.Append(s.ids.Generate(), amountMl, s.clock.Now())
	s.lastSyncError = ""
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Debug("intake recorded", "record_id", rec.ID, "amount_ml", rec.AmountMl)
	s.notify()
	return rec, err
}

// MarkSynced flags the record as delivered. Idempotent.
func (s *State) MarkSynced(ctx context.Context, id string) error {
	s.mu.Lock()
	found := s.log.MarkSynced(id)
	var err error
	if found {
		err = s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("mark synced: record %s not found", id)
	}
	s.notify()
	return err
}

// SetLastSyncError stores msg as the last sync error. Empty clears it.
func (s *State) SetLastSyncError(ctx context.Context, msg string) error {
	s.mu.Lock()
	s.lastSyncError = msg
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// UpdateSettings applies patch to the current settings.
func (s *State) UpdateSettings(ctx context.Context, patch intake.SettingsPatch) (intake.Settings, error) {
	s.mu.Lock()
	s.settings = patch.Apply(s.settings)
	updated := s.settings
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return updated, err
}

// Reset removes every record and the last sync error. Settings are kept.
func (s *State) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.log.Reset()
	s.lastSyncError = ""
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// UnsyncedInOrder returns a snapshot of unsynced records in insertion order.
func (s *State) UnsyncedInOrder() []intake.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.UnsyncedInOrder()
}

// LastByOccurredAt returns the most recent record, if any.
func (s *State) LastByOccurredAt() (intake.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.LastByOccurredAt()
}

// Len returns the number of records.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len()
}

// Settings returns the current settings.
func (s *State) Settings() intake.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// LastSyncError returns the last sync error, empty if none.
func (s *State) LastSyncError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncError
}

// Snapshot returns a deep copy of the whole document.
func (s *State) Snapshot() intake.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentLocked()
}

// Now returns the state clock's current instant.
func (s *State) Now() time.Time {
	return s.clock.Now()
}

// Save writes the current document. Used after load to normalize the file.
func (s *State) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *State) documentLocked() intake.Document {
	return intake.Document{
		Records:       s.log.Records(),
		Settings:      s.settings,
		LastSyncError: s.lastSyncError,
	}
}

// persistLocked writes the document. Caller must hold s.mu.
// A failed write is logged and returned; in-memory state stays authoritative.
func (s *State) persistLocked(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, s.documentLocked()); err != nil {
		s.logger.Error("persist state failed", "error", err)
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
