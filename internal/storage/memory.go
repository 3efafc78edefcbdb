package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/cv-builder/internal/types"
)

type generation struct {
	kind types.Kind
	at   time.Time
}

// MemoryStore is an in-process Store. Used when no database is configured and in tests.
type MemoryStore struct {
	mu          sync.RWMutex
	docs        map[string]map[string][]byte
	generations map[string][]generation
	now         func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:        make(map[string]map[string][]byte),
		generations: make(map[string][]generation),
		now:         time.Now,
	}
}

// Save stores a copy of data.
func (m *MemoryStore) Save(_ context.Context, userID, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs[userID] == nil {
		m.docs[userID] = make(map[string][]byte)
	}
	m.docs[userID][key] = append([]byte(nil), data...)
	return nil
}

// Load returns a copy of the stored data, or nil.
func (m *MemoryStore) Load(_ context.Context, userID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[userID][key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the key. Missing keys are ignored.
func (m *MemoryStore) Delete(_ context.Context, userID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs[userID], key)
	return nil
}

// RecordGeneration counts one generation now.
func (m *MemoryStore) RecordGeneration(_ context.Context, userID string, kind types.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generations[userID] = append(m.generations[userID], generation{kind: kind, at: m.now()})
	return nil
}

// CountGenerations counts generations of kind since the given time.
func (m *MemoryStore) CountGenerations(_ context.Context, userID string, kind types.Kind, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, g := range m.generations[userID] {
		if g.kind == kind && !g.at.Before(since) {
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}
