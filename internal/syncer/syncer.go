// Package syncer pushes unsynced intake records to the remote collector.
//
// A pass walks the unsynced records in insertion order and sends one upsert
// per record. The first failure stops the pass; records confirmed earlier in
// the same pass stay synced. Passes never overlap: a pass started while
// another is running is dropped with ErrPassInFlight.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/state"
)

// DefaultAppKey is the shared secret the collector expects in app_key.
const DefaultAppKey = "hydrate-desktop-7f3c9a"

// DefaultTimeout bounds a single upsert request.
const DefaultTimeout = 15 * time.Second

// DefaultBaseURLs maps each environment to its collector.
var DefaultBaseURLs = map[intake.Environment]string{
	intake.EnvDev:  "https://dev-collector.hydrate.app",
	intake.EnvProd: "https://collector.hydrate.app",
}

// Syncer runs sync passes against one State.
type Syncer struct {
	state    *state.State
	client   *http.Client
	baseURLs map[intake.Environment]string
	appKey   string
	timeout  time.Duration
	loc      *time.Location
	packaged bool
	logger   *slog.Logger

	inFlight atomic.Bool
	passes   atomic.Int64
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithHTTPClient sets the HTTP client. Default: a client with no timeout of
// its own; each request is bounded by WithTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Syncer) {
		s.client = c
	}
}

// WithBaseURLs replaces the environment to base URL mapping.
func WithBaseURLs(urls map[intake.Environment]string) Option {
	return func(s *Syncer) {
		s.baseURLs = urls
	}
}

// WithAppKey sets the app_key sent with every upsert.
func WithAppKey(key string) Option {
	return func(s *Syncer) {
		s.appKey = key
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLocation sets the time zone used for wire timestamps. Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Syncer) {
		s.loc = loc
	}
}

// WithPackaged marks the build as packaged, forcing the prod collector.
func WithPackaged(packaged bool) Option {
	return func(s *Syncer) {
		s.packaged = packaged
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = l
	}
}

// New creates a Syncer for st.
func New(st *state.State, opts ...Option) *Syncer {
	s := &Syncer{
		state:    st,
		client:   &http.Client{},
		baseURLs: DefaultBaseURLs,
		appKey:   DefaultAppKey,
		timeout:  DefaultTimeout,
		loc:      time.Local,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Passes returns the number of passes that actually ran.
func (s *Syncer) Passes() int64 {
	return s.passes.Load()
}

// BaseURL returns the collector URL for the current settings.
func (s *Syncer) BaseURL() string {
	env := intake.EffectiveEnvironment(s.state.Settings().Environment, s.packaged)
	return s.baseURLs[env]
}

// RunPass pushes every unsynced record to the collector.
//
// Returns nil when all records were delivered (or none were pending),
// ErrPassInFlight when another pass is running, and a *SyncError when the
// pass stopped early. lastSyncError is updated and persisted in every case
// except ErrPassInFlight and the nothing-pending case.
func (s *Syncer) RunPass(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("sync pass dropped, another pass in flight")
		return ErrPassInFlight
	}
	defer s.inFlight.Store(false)
	s.passes.Add(1)

	settings := s.state.Settings()
	if settings.UserID == "" {
		return s.fail(ctx, NewMissingUserIDError())
	}

	base := s.BaseURL()
	pending := s.state.UnsyncedInOrder()
	if len(pending) == 0 {
		return nil
	}

	s.logger.Debug("sync pass started", "pending", len(pending), "base_url", base)
	for _, rec := range pending {
		if err := s.send(ctx, base, settings.UserID, rec); err != nil {
			return s.fail(ctx, err)
		}
		if err := s.state.MarkSynced(ctx, rec.ID); err != nil {
			// The record was delivered; a failed save is retried by the
			// next mutation and the upsert is idempotent.
			s.logger.Warn("mark synced failed", "record_id", rec.ID, "error", err)
		}
	}

	if err := s.state.SetLastSyncError(ctx, ""); err != nil {
		return err
	}
	s.logger.Info("sync pass complete", "synced", len(pending))
	return nil
}

func (s *Syncer) fail(ctx context.Context, serr *SyncError) error {
	s.logger.Warn("sync pass failed", "code", string(serr.Code), "record_id", serr.RecordID, "error", serr.Message)
	if err := s.state.SetLastSyncError(ctx, serr.Error()); err != nil {
		s.logger.Error("record sync error failed", "error", err)
	}
	return serr
}

// send performs one upsert. Returns nil on 2xx.
func (s *Syncer) send(ctx context.Context, base, userID string, rec intake.Record) *SyncError {
	body, err := EncodeUpsert(s.appKey, userID, rec, s.loc)
	if err != nil {
		return NewTransportError(rec.ID, fmt.Errorf("encode upsert: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, base+UpsertPath, bytes.NewReader(body))
	if err != nil {
		return NewTransportError(rec.ID, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return NewTransportError(rec.ID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewServerError(rec.ID, resp.StatusCode)
	}
	s.logger.Debug("record synced", "record_id", rec.ID, "status", resp.StatusCode)
	return nil
}
