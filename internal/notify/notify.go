// Package notify delivers reminder notifications.
//
// The reminder scheduler only knows the Sink interface. Concrete sinks write
// to a logger or a terminal, and Dispatcher fans a notification out to every
// registered sink.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sink displays a notification.
type Sink interface {
	// Show displays the notification and reports whether the platform
	// supports notifications at all. A false return means nothing was shown.
	Show(title, body string) bool
}

// Supporter is implemented by sinks that can report platform support
// without showing anything.
type Supporter interface {
	Supported() bool
}

// Supported reports whether sink can display notifications. Sinks that do
// not implement Supporter are assumed to be supported.
func Supported(sink Sink) bool {
	if sink == nil {
		return false
	}
	if s, ok := sink.(Supporter); ok {
		return s.Supported()
	}
	return true
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(title, body string) bool

// Show calls f(title, body).
func (f SinkFunc) Show(title, body string) bool {
	return f(title, body)
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Show logs the notification at info level. Always supported.
func (s LogSink) Show(title, body string) bool {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "title", title, "body", body)
	return true
}

// WriterSink prints notifications as single lines to W.
type WriterSink struct {
	mu sync.Mutex
	W  io.Writer
}

// NewWriterSink creates a sink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{W: w}
}

// Show prints "title: body". A write failure reports the sink unsupported.
func (s *WriterSink) Show(title, body string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.W == nil {
		return false
	}
	_, err := fmt.Fprintf(s.W, "%s: %s\n", title, body)
	return err == nil
}
