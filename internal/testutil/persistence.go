package testutil

import (
	"context"
	"sync"

	"github.com/roach88/hydrate/internal/intake"
)

// MemoryStore is an in-memory persistence backend.
//
// It keeps the last saved document and counts saves, and can be told to fail
// loads or saves to exercise error paths.
//
// Thread-safety: safe for concurrent use via internal mutex.
type MemoryStore struct {
	mu      sync.Mutex
	doc     *intake.Document
	saves   int
	loadErr error
	saveErr error
}

// NewMemoryStore creates an empty store. If doc is non-nil it is returned by Load.
func NewMemoryStore(doc *intake.Document) *MemoryStore {
	m := &MemoryStore{}
	if doc != nil {
		c := doc.Clone()
		m.doc = &c
	}
	return m
}

// Load returns the last saved document or defaults.
func (m *MemoryStore) Load(ctx context.Context) (intake.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return intake.Document{}, m.loadErr
	}
	if m.doc == nil {
		return intake.DefaultDocument(), nil
	}
	return m.doc.Clone(), nil
}

// Save stores a copy of doc.
func (m *MemoryStore) Save(ctx context.Context, doc intake.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	c := doc.Clone()
	m.doc = &c
	m.saves++
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// FailLoad makes subsequent Load calls return err. Nil clears it.
func (m *MemoryStore) FailLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSave makes subsequent Save calls return err. Nil clears it.
func (m *MemoryStore) FailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saved returns the last saved document and whether anything was saved.
func (m *MemoryStore) Saved() (intake.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return intake.Document{}, false
	}
	return m.doc.Clone(), true
}

// Saves returns the number of successful saves.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
