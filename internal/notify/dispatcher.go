package notify

import (
	"log/slog"
	"sync"
)

// Dispatcher fans a notification out to every registered sink.
//
// Dispatcher is itself a Sink. Show reports true if at least one sink showed
// the notification, so a dispatcher with no working sinks is unsupported.
type Dispatcher struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher with the given sinks.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, s := range sinks {
		d.Register(s)
	}
	return d
}

// Register adds a sink. Nil sinks are ignored.
func (d *Dispatcher) Register(sink Sink) {
	if sink == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// Len returns the number of registered sinks.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sinks)
}

// Supported reports whether any registered sink is supported.
func (d *Dispatcher) Supported() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sink := range d.sinks {
		if Supported(sink) {
			return true
		}
	}
	return false
}

// Show delivers the notification to every sink in registration order.
func (d *Dispatcher) Show(title, body string) bool {
	d.mu.RLock()
	sinks := make([]Sink, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	shown := false
	for i, sink := range sinks {
		if d.showWithRecover(i, sink, title, body) {
			shown = true
		}
	}
	return shown
}

// showWithRecover shows through one sink and recovers from panics.
func (d *Dispatcher) showWithRecover(index int, sink Sink, title, body string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification sink panicked", "sink", index, "panic", r)
			ok = false
		}
	}()
	return sink.Show(title, body)
}
