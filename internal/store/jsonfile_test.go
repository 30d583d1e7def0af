package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrate/internal/intake"
)

func TestJSONFile_MissingFileYieldsDefaults(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "nope", DataFileName))

	doc, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intake.DefaultDocument(), doc)
}

func TestJSONFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := NewJSONFile(filepath.Join(t.TempDir(), "data", DataFileName))
	want := sampleDocument()

	require.NoError(t, f.Save(ctx, want))
	got, err := f.Load(ctx)
	require.NoError(t, err)

	require.Len(t, got.Records, 3)
	for i := range want.Records {
		assert.Equal(t, want.Records[i].ID, got.Records[i].ID)
		assert.Equal(t, want.Records[i].Synced, got.Records[i].Synced)
		assert.True(t, want.Records[i].OccurredAt.Equal(got.Records[i].OccurredAt))
	}
	assert.Equal(t, want.Settings, got.Settings)
	assert.Equal(t, want.LastSyncError, got.LastSyncError)
}

func TestJSONFile_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewJSONFile(filepath.Join(dir, DataFileName))

	for i := 0; i < 3; i++ {
		require.NoError(t, f.Save(context.Background(), sampleDocument()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DataFileName, entries[0].Name())
}

func TestJSONFile_MergesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	content := `{
  "records": [{"id": "x", "amountMl": 300, "occurredAt": "2026-02-10T07:30:00Z", "createdAt": "2026-02-10T07:30:00Z", "synced": false}],
  "settings": {"userId": " bob ", "reminderIntervalMs": 0, "environment": "qa", "someFutureField": 1},
  "lastReminderForDrinkAt": 12345
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, doc.Records, 1)
	assert.Equal(t, "bob", doc.Settings.UserID)
	assert.Equal(t, intake.DefaultReminderInterval.Milliseconds(), doc.Settings.ReminderIntervalMs)
	assert.Equal(t, intake.EnvDev, doc.Settings.Environment)
	assert.True(t, doc.Settings.ReminderEnabled, "missing field takes default")
	assert.True(t, doc.Settings.MinimizeToTray, "missing field takes default")
	assert.Empty(t, doc.LastSyncError)
}

func TestJSONFile_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"records": [`), 0o644))

	_, err := NewJSONFile(path).Load(context.Background())
	assert.Error(t, err)
}

func TestLoadOrDefault_FallsBackWithError(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	doc := LoadOrDefault(context.Background(), NewJSONFile(path), logger)

	assert.Empty(t, doc.Records)
	assert.Equal(t, intake.DefaultSettings(), doc.Settings)
	assert.NotEmpty(t, doc.LastSyncError)
	assert.Contains(t, doc.LastSyncError, "decode document")
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	p, err := Open(BackendJSON, dir)
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, p)
	require.NoError(t, p.Close())

	p, err = Open(BackendSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, p)
	require.NoError(t, p.Close())

	_, err = Open("bolt", dir)
	assert.Error(t, err)

	_, err = Open(BackendJSON, "")
	assert.Error(t, err)
}
