// Package eventlog holds the append-only list of intake records.
//
// Log is a plain value type with no locking and no persistence: it is always
// reached through state.State, which serializes access and writes the
// document after every mutation.
package eventlog

import (
	"time"

	"github.com/roach88/hydrate/internal/intake"
)

// Log is the ordered list of intake records. Order is insertion order.
type Log struct {
	records []intake.Record
}

// New returns a Log that takes ownership of records.
func New(records []intake.Record) *Log {
	if records == nil {
		records = []intake.Record{}
	}
	return &Log{records: records}
}

// Append creates a new unsynced record stamped with now and appends it.
func (l *Log) Append(id string, amountMl int, now time.Time) intake.Record {
	rec := intake.Record{
		ID:         id,
		AmountMl:   amountMl,
		OccurredAt: now,
		CreatedAt:  now,
		Synced:     false,
	}
	l.records = append(l.records, rec)
	return rec
}

// UnsyncedInOrder returns every record with Synced=false in insertion order.
func (l *Log) UnsyncedInOrder() []intake.Record {
	out := make([]intake.Record, 0)
	for _, rec := range l.records {
		if !rec.Synced {
			out = append(out, rec)
		}
	}
	return out
}

// LastByOccurredAt returns the record with the latest OccurredAt.
//
// Only a strictly greater timestamp replaces the running maximum, so among
// exact ties the earliest-inserted record wins.
func (l *Log) LastByOccurredAt() (intake.Record, bool) {
	if len(l.records) == 0 {
		return intake.Record{}, false
	}
	last := l.records[0]
	for _, rec := range l.records[1:] {
		if rec.OccurredAt.After(last.OccurredAt) {
			last = rec
		}
	}
	return last, true
}

// MarkSynced sets Synced on the record with the given id.
// Returns false if no record matches. Marking an already synced record is a no-op.
func (l *Log) MarkSynced(id string) bool {
	for i := range l.records {
		if l.records[i].ID == id {
			l.records[i].Synced = true
			return true
		}
	}
	return false
}

// Reset removes all records.
func (l *Log) Reset() {
	l.records = []intake.Record{}
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// PendingCount returns the number of unsynced records.
func (l *Log) PendingCount() int {
	n := 0
	for _, rec := range l.records {
		if !rec.Synced {
			n++
		}
	}
	return n
}

// TotalSince sums AmountMl over records whose OccurredAt is at or after since.
func (l *Log) TotalSince(since time.Time) int {
	total := 0
	for _, rec := range l.records {
		if !rec.OccurredAt.Before(since) {
			total += rec.AmountMl
		}
	}
	return total
}

// Records returns a copy of all records in insertion order.
func (l *Log) Records() []intake.Record {
	out := make([]intake.Record, len(l.records))
	copy(out, l.records)
	return out
}
