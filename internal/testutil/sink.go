package testutil

import "sync"

// Notification is one call to a notification sink.
type Notification struct {
	Title string
	Body  string
}

// RecordingSink captures notifications instead of displaying them.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingSink struct {
	mu          sync.Mutex
	unsupported bool
	shown       []Notification
}

// NewRecordingSink creates a sink that reports itself as supported.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// SetSupported controls the value returned by Show.
// An unsupported sink records nothing.
func (s *RecordingSink) SetSupported(supported bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsupported = !supported
}

// Supported reports whether the sink can display notifications.
func (s *RecordingSink) Supported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unsupported
}

// Show records the notification. Implements notify.Sink.
func (s *RecordingSink) Show(title, body string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsupported {
		return false
	}
	s.shown = append(s.shown, Notification{Title: title, Body: body})
	return true
}

// Shown returns a copy of every recorded notification.
func (s *RecordingSink) Shown() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.shown))
	copy(out, s.shown)
	return out
}

// Count returns the number of recorded notifications.
func (s *RecordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown)
}
