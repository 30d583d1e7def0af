package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/state"
	"github.com/roach88/hydrate/internal/status"
	"github.com/roach88/hydrate/internal/syncer"
	"github.com/roach88/hydrate/internal/testutil"
)

var t0 = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

// countingSyncer records passes and never overlaps, like syncer.Syncer.
type countingSyncer struct {
	passes   atomic.Int64
	inFlight atomic.Bool
	overlaps atomic.Int64
	block    chan struct{}
}

func (s *countingSyncer) RunPass(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.overlaps.Add(1)
		return syncer.ErrPassInFlight
	}
	defer s.inFlight.Store(false)
	s.passes.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
		}
	}
	return nil
}

type fixture struct {
	engine *Engine
	state  *state.State
	store  *testutil.MemoryStore
	clock  *testutil.FakeClock
	sink   *testutil.RecordingSink
}

func newFixture(t *testing.T, sy Syncer, opts ...EngineOption) *fixture {
	t.Helper()
	ms := testutil.NewMemoryStore(nil)
	clock := testutil.NewFakeClock(t0)
	st := state.Load(context.Background(), ms,
		state.WithClock(clock),
		state.WithIDGenerator(testutil.NewSequenceIDs("")),
		state.WithLogger(testutil.DiscardLogger()),
	)
	sink := testutil.NewRecordingSink()
	base := []EngineOption{WithLocation(time.UTC), WithLogger(testutil.DiscardLogger())}
	e := New(st, sy, sink, append(base, opts...)...)
	return &fixture{engine: e, state: st, store: ms, clock: clock, sink: sink}
}

func startEngine(t *testing.T, e *Engine) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
	})
	return cancel
}

func TestRecordIntake_ReturnsStatus(t *testing.T) {
	f := newFixture(t, &countingSyncer{}, WithAmountMl(250))

	st, err := f.engine.RecordIntake(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, st.RecordCount)
	assert.Equal(t, 1, st.PendingCount)
	assert.Equal(t, 250, st.TodayTotalMl)
	require.NotNil(t, st.LastDrankAt)
	assert.Equal(t, t0, *st.LastDrankAt)

	saved, ok := f.store.Saved()
	require.True(t, ok)
	assert.Len(t, saved.Records, 1)
}

func TestRecordIntake_SubmitsTriggerWithoutBlocking(t *testing.T) {
	sy := &countingSyncer{}
	f := newFixture(t, sy)

	_, err := f.engine.RecordIntake(context.Background())
	require.NoError(t, err)
	_, err = f.engine.RecordIntake(context.Background())
	require.NoError(t, err)

	// No worker yet: both triggers are merged into one pending trigger.
	assert.Equal(t, 1, f.engine.PendingTriggers())
	assert.Equal(t, int64(0), sy.passes.Load())

	startEngine(t, f.engine)
	require.Eventually(t, func() bool { return sy.passes.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.engine.PendingTriggers())
}

func TestRecordIntake_ResetsReminderCheckpoint(t *testing.T) {
	f := newFixture(t, &countingSyncer{})

	_, err := f.engine.RecordIntake(context.Background())
	require.NoError(t, err)
	f.clock.Advance(3 * time.Hour)
	require.True(t, f.engine.CheckReminder())

	f.clock.Advance(time.Minute)
	_, err = f.engine.RecordIntake(context.Background())
	require.NoError(t, err)

	cp := f.engine.Reminders().Checkpoint()
	assert.Equal(t, "rec-2", cp.RecordID)
	assert.Equal(t, int64(0), cp.Slot)
	assert.False(t, f.engine.CheckReminder())
}

func TestRecordIntake_PersistFailureStillCounts(t *testing.T) {
	f := newFixture(t, &countingSyncer{})
	f.store.FailSave(errors.New("read-only file system"))

	st, err := f.engine.RecordIntake(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
	assert.Equal(t, 1, st.RecordCount)
}

func TestWorker_NeverOverlapsPasses(t *testing.T) {
	sy := &countingSyncer{block: make(chan struct{})}
	f := newFixture(t, sy)
	startEngine(t, f.engine)

	_, _ = f.engine.RecordIntake(context.Background())
	require.Eventually(t, func() bool { return sy.passes.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	// Triggers arriving mid-pass wait as one pending trigger.
	for i := 0; i < 5; i++ {
		_, _ = f.engine.RecordIntake(context.Background())
	}
	assert.Equal(t, 1, f.engine.PendingTriggers())

	sy.block <- struct{}{}
	require.Eventually(t, func() bool { return sy.passes.Load() == 2 }, 5*time.Second, 5*time.Millisecond)
	sy.block <- struct{}{}

	assert.Equal(t, int64(0), sy.overlaps.Load())
}

func TestRun_SyncTimer(t *testing.T) {
	sy := &countingSyncer{}
	f := newFixture(t, sy, WithSyncInterval(10*time.Millisecond))
	startEngine(t, f.engine)

	require.Eventually(t, func() bool { return sy.passes.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
}

func TestRun_ReminderTimer(t *testing.T) {
	f := newFixture(t, &countingSyncer{}, WithReminderCheckInterval(5*time.Millisecond))
	_, err := f.engine.RecordIntake(context.Background())
	require.NoError(t, err)
	f.clock.Advance(2*time.Hour + time.Second)

	startEngine(t, f.engine)

	require.Eventually(t, func() bool { return f.sink.Count() == 1 }, 5*time.Second, 5*time.Millisecond)
	// Later checks within the same slot do not fire again.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, f.sink.Count())
}

func TestRun_TriggerAfterStop(t *testing.T) {
	f := newFixture(t, &countingSyncer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, f.engine.TriggerSync(ReasonManual), ErrStopped)
	assert.ErrorIs(t, f.engine.Run(context.Background()), ErrStopped)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t, &countingSyncer{})

	user := " carol "
	interval := int64(time.Hour / time.Millisecond)
	st, err := f.engine.UpdateSettings(context.Background(), intake.SettingsPatch{
		UserID:             &user,
		ReminderIntervalMs: &interval,
	})
	require.NoError(t, err)

	assert.Equal(t, "carol", st.Settings.UserID)
	assert.Equal(t, interval, st.Settings.ReminderIntervalMs)
}

func TestReset_KeepsSettings(t *testing.T) {
	f := newFixture(t, &countingSyncer{})
	user := "dave"
	_, err := f.engine.UpdateSettings(context.Background(), intake.SettingsPatch{UserID: &user})
	require.NoError(t, err)
	_, err = f.engine.RecordIntake(context.Background())
	require.NoError(t, err)

	st, err := f.engine.Reset(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, st.RecordCount)
	assert.Equal(t, "dave", st.Settings.UserID)
	assert.Equal(t, "", f.engine.Reminders().Checkpoint().RecordID)
}

func TestTestReminder(t *testing.T) {
	f := newFixture(t, &countingSyncer{})
	require.NoError(t, f.engine.TestReminder())
	require.Equal(t, 1, f.sink.Count())
	assert.Equal(t, "Hydration reminder", f.sink.Shown()[0].Title)

	f.sink.SetSupported(false)
	assert.ErrorIs(t, f.engine.TestReminder(), ErrNotificationsUnsupported)
}

func TestTestReminder_LockedInPackagedBuild(t *testing.T) {
	f := newFixture(t, &countingSyncer{}, WithPackaged(true))

	assert.ErrorIs(t, f.engine.TestReminder(), ErrEnvironmentLocked)
	assert.Equal(t, 0, f.sink.Count())
	assert.True(t, f.engine.Status().Settings.EnvironmentLocked)
	assert.Equal(t, intake.EnvProd, f.engine.Status().Settings.Environment)
}

func TestOnStatus_PushedAfterChanges(t *testing.T) {
	f := newFixture(t, &countingSyncer{})

	var mu sync.Mutex
	var got []status.Status
	f.engine.OnStatus(func(st status.Status) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, st)
	})

	_, _ = f.engine.RecordIntake(context.Background())
	_, _ = f.engine.Reset(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].RecordCount)
	assert.Equal(t, 0, got[1].RecordCount)
}

func TestEngine_EndToEndWithCollector(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ms := testutil.NewMemoryStore(nil)
	clock := testutil.NewFakeClock(t0)
	st := state.Load(context.Background(), ms,
		state.WithClock(clock),
		state.WithIDGenerator(testutil.NewSequenceIDs("")),
		state.WithLogger(testutil.DiscardLogger()),
	)
	user := "erin"
	_, err := st.UpdateSettings(context.Background(), intake.SettingsPatch{UserID: &user})
	require.NoError(t, err)

	sy := syncer.New(st,
		syncer.WithBaseURLs(map[intake.Environment]string{intake.EnvDev: srv.URL}),
		syncer.WithLocation(time.UTC),
		syncer.WithLogger(testutil.DiscardLogger()),
	)
	e := New(st, sy, testutil.NewRecordingSink(), WithLocation(time.UTC), WithLogger(testutil.DiscardLogger()))
	startEngine(t, e)

	_, err = e.RecordIntake(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return e.Status().PendingCount == 0 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), requests.Load())
	assert.Empty(t, e.Status().LastSyncError)
}
