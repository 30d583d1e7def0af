package intake

import "time"

// LocalDateTimeLayout is the wire timestamp layout: local time, zero-padded,
// second precision.
const LocalDateTimeLayout = "2006-01-02 15:04:05"

// FormatLocalDateTime renders t in loc using LocalDateTimeLayout.
// A nil loc means time.Local.
func FormatLocalDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(LocalDateTimeLayout)
}

// IdempotencyKey builds the upsert key for a record.
//
// The key truncates to whole seconds, so two records by the same user within
// the same second share a key and the collector keeps only one of them.
func IdempotencyKey(userID string, occurredAt time.Time, loc *time.Location) string {
	return userID + "_" + FormatLocalDateTime(occurredAt, loc)
}

// StartOfDay returns local midnight of the day containing t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	y, m, d := lt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
