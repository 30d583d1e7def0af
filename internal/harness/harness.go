package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/hydrate/internal/engine"
	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/notify"
	"github.com/roach88/hydrate/internal/state"
	"github.com/roach88/hydrate/internal/status"
	"github.com/roach88/hydrate/internal/syncer"
	"github.com/roach88/hydrate/internal/testutil"
)

// ScenarioAppKey is the app key sent by scenario runs.
const ScenarioAppKey = "scenario-key"

// runner holds one scenario execution.
type runner struct {
	scenario *Scenario
	start    time.Time
	clock    *testutil.FakeClock
	state    *state.State
	engine   *engine.Engine

	mu     sync.Mutex // guards result; the collector records from its own goroutine
	result *Result
}

// Run executes a scenario and returns its trace.
//
// Execution is deterministic: the clock only moves between steps, record ids
// are sequential ("rec-1", "rec-2", ...) and sync passes run only on sync
// steps. The sync trigger submitted by each drink stays pending because no
// worker is started.
//
// Returns an error only if the scenario cannot be executed; expectation
// failures are reported in Result.Errors.
func Run(s *Scenario) (*Result, error) {
	start, err := s.startTime()
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	r := &runner{
		scenario: s,
		start:    start,
		clock:    testutil.NewFakeClock(start),
		result:   NewResult(),
	}
	logger := testutil.DiscardLogger()

	srv := httptest.NewServer(r.collector())
	defer srv.Close()

	r.state = state.New(intake.DefaultDocument(), testutil.NewMemoryStore(nil),
		state.WithClock(r.clock),
		state.WithIDGenerator(testutil.NewSequenceIDs("rec")),
		state.WithLogger(logger),
	)
	sy := syncer.New(r.state,
		syncer.WithBaseURLs(map[intake.Environment]string{intake.EnvDev: srv.URL, intake.EnvProd: srv.URL}),
		syncer.WithAppKey(ScenarioAppKey),
		syncer.WithLocation(time.UTC),
		syncer.WithLogger(logger),
	)
	r.engine = engine.New(r.state, sy, notify.SinkFunc(r.showNotification),
		engine.WithLocation(time.UTC),
		engine.WithLogger(logger),
	)

	ctx := context.Background()
	if s.Settings != nil {
		if _, err := r.engine.UpdateSettings(ctx, s.Settings.patch()); err != nil {
			return nil, fmt.Errorf("initial settings: %w", err)
		}
	}

	for i, step := range s.Steps {
		r.clock.Set(start.Add(step.offset))
		if err := r.runStep(ctx, i, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Do, err)
		}
	}

	r.checkAssertions()
	return r.result, nil
}

func (r *runner) offset() time.Duration {
	return r.clock.Now().Sub(r.start)
}

func (r *runner) record(kind string, fields ...Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.add(r.offset(), kind, fields...)
}

func (r *runner) fail(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.AddError(format, args...)
}

// showNotification is the engine's notification sink.
func (r *runner) showNotification(title, body string) bool {
	r.mu.Lock()
	r.result.Notifications++
	r.mu.Unlock()
	r.record("notification", Field{"title", title}, Field{"body", body})
	return true
}

// collector answers upserts according to the scenario's collector config.
func (r *runner) collector() http.Handler {
	failStatus := r.scenario.Collector.FailStatus
	if failStatus == 0 {
		failStatus = http.StatusServiceUnavailable
	}
	fail := make(map[int]bool, len(r.scenario.Collector.FailRequests))
	for _, n := range r.scenario.Collector.FailRequests {
		fail[n] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Docs []struct {
				Key   string `json:"userid_drinktime"`
				Water int    `json:"water"`
			} `json:"docs"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || len(body.Docs) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		r.mu.Lock()
		r.result.Requests++
		n := r.result.Requests
		r.mu.Unlock()

		code := http.StatusOK
		if fail[n] {
			code = failStatus
		}
		r.record("request",
			Field{"key", body.Docs[0].Key},
			Field{"water", strconv.Itoa(body.Docs[0].Water)},
			Field{"status", strconv.Itoa(code)},
		)
		w.WriteHeader(code)
	})
}

func (r *runner) runStep(ctx context.Context, i int, step Step) error {
	label := fmt.Sprintf("step %d (%s at %s)", i, step.Do, step.offset)

	switch step.Do {
	case ActionDrink:
		if _, err := r.engine.RecordIntake(ctx); err != nil {
			return err
		}
		snap := r.state.Snapshot()
		rec := snap.Records[len(snap.Records)-1]
		r.record(ActionDrink, Field{"record", rec.ID}, Field{"amount_ml", strconv.Itoa(rec.AmountMl)})

	case ActionCheckReminder:
		fired := r.engine.CheckReminder()
		slot := r.engine.Reminders().Checkpoint().Slot
		r.record(ActionCheckReminder,
			Field{"fired", strconv.FormatBool(fired)},
			Field{"slot", strconv.FormatInt(slot, 10)},
		)
		if step.Expect != nil && step.Expect.Fired != nil && *step.Expect.Fired != fired {
			r.fail("%s: fired = %t, want %t", label, fired, *step.Expect.Fired)
		}

	case ActionSync:
		code := syncResultCode(r.engine.SyncNow(ctx))
		result := code
		if result == "" {
			result = "ok"
		}
		r.record(ActionSync, Field{"result", result})
		if step.Expect != nil && step.Expect.Error != nil && *step.Expect.Error != code {
			r.fail("%s: error = %q, want %q", label, code, *step.Expect.Error)
		}

	case ActionStatus:
		st := r.engine.Status()
		r.record(ActionStatus,
			Field{"today_total_ml", strconv.Itoa(st.TodayTotalMl)},
			Field{"pending", strconv.Itoa(st.PendingCount)},
			Field{"records", strconv.Itoa(st.RecordCount)},
			Field{"last_sync_error", st.LastSyncError},
		)
		r.checkStatus(label, step.Expect, st)

	case ActionSetSettings:
		st, err := r.engine.UpdateSettings(ctx, step.Settings.patch())
		if err != nil {
			return err
		}
		r.record(ActionSetSettings,
			Field{"user_id", st.Settings.UserID},
			Field{"environment", string(st.Settings.Environment)},
			Field{"reminders", strconv.FormatBool(st.Settings.ReminderEnabled)},
			Field{"interval", st.Settings.ReminderInterval().String()},
		)

	case ActionReset:
		st, err := r.engine.Reset(ctx)
		if err != nil {
			return err
		}
		r.record(ActionReset,
			Field{"records", strconv.Itoa(st.RecordCount)},
			Field{"user_id", st.Settings.UserID},
		)

	default:
		return fmt.Errorf("unknown action %q", step.Do)
	}
	return nil
}

// syncResultCode maps a pass result to its error code, "" for success.
func syncResultCode(err error) string {
	if err == nil {
		return ""
	}
	var se *syncer.SyncError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return err.Error()
}

func (r *runner) checkStatus(label string, want *Expect, st status.Status) {
	if want == nil {
		return
	}
	if want.TodayTotalMl != nil && *want.TodayTotalMl != st.TodayTotalMl {
		r.fail("%s: today_total_ml = %d, want %d", label, st.TodayTotalMl, *want.TodayTotalMl)
	}
	if want.PendingCount != nil && *want.PendingCount != st.PendingCount {
		r.fail("%s: pending = %d, want %d", label, st.PendingCount, *want.PendingCount)
	}
	if want.RecordCount != nil && *want.RecordCount != st.RecordCount {
		r.fail("%s: records = %d, want %d", label, st.RecordCount, *want.RecordCount)
	}
	if want.LastSyncError != nil && *want.LastSyncError != st.LastSyncError {
		r.fail("%s: last_sync_error = %q, want %q", label, st.LastSyncError, *want.LastSyncError)
	}
}

// patch converts the scenario settings into an intake patch.
func (s *SettingsStep) patch() intake.SettingsPatch {
	p := intake.SettingsPatch{
		UserID:          s.UserID,
		ReminderEnabled: s.ReminderEnabled,
		ReminderContent: s.ReminderContent,
	}
	if s.Environment != nil {
		env := intake.Environment(*s.Environment)
		p.Environment = &env
	}
	if s.IntervalHours != nil && *s.IntervalHours > 0 && !math.IsInf(*s.IntervalHours, 0) {
		ms := int64(math.Round(*s.IntervalHours * float64(time.Hour/time.Millisecond)))
		p.ReminderIntervalMs = &ms
	}
	return p
}
