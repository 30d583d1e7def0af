package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/hydrate/internal/intake"
)

var baseTime = time.Date(2026, 2, 10, 7, 30, 0, 0, time.UTC)

// createTestSQLite opens a fresh database in a temp directory.
func createTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleDocument returns a document with three records, the middle one synced.
func sampleDocument() intake.Document {
	doc := intake.DefaultDocument()
	doc.Settings.UserID = "alice"
	doc.Settings.Environment = intake.EnvProd
	doc.Settings.ReminderIntervalMs = time.Hour.Milliseconds()
	doc.LastSyncError = "SERVER_ERROR: collector responded 503"
	for i, id := range []string{"rec-c", "rec-a", "rec-b"} {
		at := baseTime.Add(time.Duration(i) * time.Minute)
		doc.Records = append(doc.Records, intake.Record{
			ID:         id,
			AmountMl:   300,
			OccurredAt: at,
			CreatedAt:  at,
			Synced:     i == 1,
		})
	}
	return doc
}
