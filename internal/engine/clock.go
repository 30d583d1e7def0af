package engine

import "sync/atomic"

// sequence numbers triggers in submission order.
//
// Trigger sequence numbers appear in logs so a pass can be matched with the
// trigger that caused it, including merged triggers.
//
// Thread-safety: safe for concurrent use (atomic operations).
type sequence struct {
	seq atomic.Int64
}

// Next returns the next sequence number.
func (s *sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number.
func (s *sequence) Current() int64 {
	return s.seq.Load()
}
