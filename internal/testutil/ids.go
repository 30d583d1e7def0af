package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates record ids "<prefix>-1", "<prefix>-2", ...
//
// This enables deterministic test execution and golden trace comparison.
//
// Thread-safety: SequenceIDs is safe for concurrent use via internal mutex.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix defaults to "rec".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "rec"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements intake.IDGenerator interface.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
