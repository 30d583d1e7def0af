package engine

import "sync"

// TriggerReason says why a sync pass was requested.
type TriggerReason string

const (
	// ReasonAppend is submitted after every recorded intake.
	ReasonAppend TriggerReason = "append"
	// ReasonTimer is submitted by the periodic sync timer.
	ReasonTimer TriggerReason = "timer"
	// ReasonManual is submitted by an explicit sync request.
	ReasonManual TriggerReason = "manual"
)

// Trigger is one request for a sync pass.
type Trigger struct {
	Seq    int64
	Reason TriggerReason
	// Merged counts later triggers folded into this one.
	Merged int
}

// triggerQueue holds at most one pending trigger.
//
// Enqueue on a non-empty queue merges into the pending trigger instead of
// appending. The worker therefore runs at most one pass for any number of
// triggers submitted while it was busy.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the worker loop.
type triggerQueue struct {
	mu      sync.Mutex
	pending *Trigger
	closed  bool
	signal  chan struct{} // Signals trigger availability (buffered, size 1)
}

func newTriggerQueue() *triggerQueue {
	return &triggerQueue{
		signal: make(chan struct{}, 1),
	}
}

// Enqueue submits t. Returns false if the queue is closed.
// Thread-safe: may be called from any goroutine.
func (q *triggerQueue) Enqueue(t Trigger) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.pending != nil {
		q.pending.Merged += 1 + t.Merged
		return true
	}
	q.pending = &t

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the pending trigger without blocking.
func (q *triggerQueue) TryDequeue() (Trigger, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == nil {
		return Trigger{}, false
	}
	t := *q.pending
	q.pending = nil
	return t, true
}

// Wait returns a channel that signals when a trigger may be available.
// The channel is closed by Close.
func (q *triggerQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns 1 if a trigger is pending, else 0.
func (q *triggerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		return 0
	}
	return 1
}

// Closed reports whether Close has been called.
func (q *triggerQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting triggers and wakes any waiter.
func (q *triggerQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
