package eventlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hydrate/internal/intake"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestAppend_GrowsByOneAndUnsynced(t *testing.T) {
	l := New(nil)
	for i := 0; i < 5; i++ {
		before := l.Len()
		rec := l.Append(fmt.Sprintf("r%d", i), 300, t0.Add(time.Duration(i)*time.Minute))

		assert.Equal(t, before+1, l.Len())
		assert.False(t, rec.Synced)
		assert.Equal(t, rec.OccurredAt, rec.CreatedAt)
		assert.Equal(t, 300, rec.AmountMl)
	}
}

func TestUnsyncedInOrder_PreservesInsertionOrder(t *testing.T) {
	l := New(nil)
	l.Append("a", 100, t0.Add(2*time.Minute))
	l.Append("b", 100, t0)
	l.Append("c", 100, t0.Add(time.Minute))
	l.MarkSynced("b")

	got := l.UnsyncedInOrder()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestLastByOccurredAt(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := New(nil).LastByOccurredAt()
		assert.False(t, ok)
	})

	t.Run("max wins regardless of insertion", func(t *testing.T) {
		l := New(nil)
		l.Append("late", 100, t0.Add(time.Hour))
		l.Append("early", 100, t0)

		last, ok := l.LastByOccurredAt()
		require.True(t, ok)
		assert.Equal(t, "late", last.ID)
	})

	t.Run("ties keep earliest inserted", func(t *testing.T) {
		l := New(nil)
		l.Append("first", 100, t0)
		l.Append("second", 100, t0)
		l.Append("third", 100, t0)

		last, ok := l.LastByOccurredAt()
		require.True(t, ok)
		assert.Equal(t, "first", last.ID)
	})
}

func TestMarkSynced_Idempotent(t *testing.T) {
	l := New(nil)
	l.Append("a", 100, t0)

	assert.True(t, l.MarkSynced("a"))
	assert.True(t, l.MarkSynced("a"))
	assert.False(t, l.MarkSynced("missing"))
	assert.Equal(t, 0, l.PendingCount())
	assert.True(t, l.Records()[0].Synced)
}

func TestReset(t *testing.T) {
	l := New([]intake.Record{{ID: "a"}, {ID: "b"}})
	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.UnsyncedInOrder())
}

func TestTotalSince(t *testing.T) {
	l := New(nil)
	midnight := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	l.Append("yesterday", 300, midnight.Add(-time.Minute))
	l.Append("at-midnight", 200, midnight)
	l.Append("morning", 250, midnight.Add(8*time.Hour))

	assert.Equal(t, 450, l.TotalSince(midnight))
	assert.Equal(t, 750, l.TotalSince(midnight.Add(-time.Hour)))
}

func TestRecords_ReturnsCopy(t *testing.T) {
	l := New(nil)
	l.Append("a", 100, t0)

	recs := l.Records()
	recs[0].Synced = true

	assert.Equal(t, 1, l.PendingCount())
}
