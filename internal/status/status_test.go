package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrate/internal/intake"
)

func record(id string, amount int, at time.Time, synced bool) intake.Record {
	return intake.Record{ID: id, AmountMl: amount, OccurredAt: at, CreatedAt: at, Synced: synced}
}

func TestProject_Empty(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	st := Project(intake.DefaultDocument(), Options{Location: time.UTC}, now)

	assert.Equal(t, now, st.Now)
	assert.Nil(t, st.LastDrankAt)
	assert.Nil(t, st.NextReminderAt)
	assert.Equal(t, 0, st.TodayTotalMl)
	assert.Equal(t, 0, st.PendingCount)
	assert.Equal(t, intake.EnvDev, st.Settings.Environment)
	assert.False(t, st.Settings.EnvironmentLocked)
}

func TestProject_Totals(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	doc := intake.DefaultDocument()
	doc.Records = []intake.Record{
		record("a", 300, day.Add(-time.Hour), true),
		record("b", 300, day.Add(8*time.Hour), false),
		record("c", 250, day.Add(10*time.Hour), false),
	}
	doc.LastSyncError = "TRANSPORT: connection refused"

	st := Project(doc, Options{Location: time.UTC}, day.Add(12*time.Hour))

	require.NotNil(t, st.LastDrankAt)
	assert.Equal(t, day.Add(10*time.Hour), *st.LastDrankAt)
	assert.Equal(t, 550, st.TodayTotalMl)
	assert.Equal(t, 2, st.PendingCount)
	assert.Equal(t, 3, st.RecordCount)
	assert.Equal(t, "TRANSPORT: connection refused", st.LastSyncError)
	require.NotNil(t, st.NextReminderAt)
	assert.Equal(t, day.Add(14*time.Hour), *st.NextReminderAt)
}

func TestProject_MidnightResetsTodayTotal(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	doc := intake.DefaultDocument()
	doc.Records = []intake.Record{
		record("a", 300, day.Add(22*time.Hour), false),
		record("b", 300, day.Add(23*time.Hour+59*time.Minute), false),
	}

	before := Project(doc, Options{Location: time.UTC}, day.Add(23*time.Hour+59*time.Minute+59*time.Second))
	assert.Equal(t, 600, before.TodayTotalMl)

	midnight := Project(doc, Options{Location: time.UTC}, day.Add(24*time.Hour))
	assert.Equal(t, 0, midnight.TodayTotalMl)
	assert.Equal(t, 2, midnight.RecordCount)
}

func TestProject_LocalMidnightUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	// 2026-03-04 23:30 UTC is 07:30 on 2026-03-05 in UTC+8.
	doc := intake.DefaultDocument()
	doc.Records = []intake.Record{
		record("a", 300, time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC), false),
		record("b", 200, time.Date(2026, 3, 4, 16, 30, 0, 0, time.UTC), false),
	}

	st := Project(doc, Options{Location: loc}, time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, 200, st.TodayTotalMl)
}

func TestProject_TieKeepsEarliestInserted(t *testing.T) {
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	doc := intake.DefaultDocument()
	doc.Records = []intake.Record{
		record("first", 300, at, false),
		record("second", 300, at, false),
	}

	st := Project(doc, Options{Location: time.UTC}, at.Add(time.Minute))
	require.NotNil(t, st.LastDrankAt)
	assert.Equal(t, at, *st.LastDrankAt)
}

func TestProject_PackagedLocksEnvironment(t *testing.T) {
	doc := intake.DefaultDocument()
	doc.Settings.Environment = intake.EnvDev

	st := Project(doc, Options{Packaged: true, Location: time.UTC}, time.Now())
	assert.Equal(t, intake.EnvProd, st.Settings.Environment)
	assert.True(t, st.Settings.EnvironmentLocked)

	// The document itself is untouched.
	assert.Equal(t, intake.EnvDev, doc.Settings.Environment)
}

func TestProject_RemindersDisabledHasNoNext(t *testing.T) {
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	doc := intake.DefaultDocument()
	doc.Settings.ReminderEnabled = false
	doc.Records = []intake.Record{record("a", 300, at, false)}

	st := Project(doc, Options{Location: time.UTC}, at)
	assert.Nil(t, st.NextReminderAt)
}

func TestStatus_JSONShape(t *testing.T) {
	st := Project(intake.DefaultDocument(), Options{Location: time.UTC}, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	data, err := json.Marshal(st)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	settings, ok := m["settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dev", settings["environment"])
	assert.Equal(t, false, settings["environmentLocked"])
	assert.Contains(t, m, "todayTotal")
	assert.Nil(t, m["lastDrankAt"])
}
