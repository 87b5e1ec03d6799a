package lock

import (
	"context"
	"sync"
)

// MemoryStore is an in-process mutex table keyed by schedule id.
type MemoryStore struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{held: make(map[string]struct{})}
}

func (m *MemoryStore) TryAcquire(_ context.Context, scheduleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[scheduleID]; ok {
		return false, nil
	}
	m.held[scheduleID] = struct{}{}
	return true, nil
}

func (m *MemoryStore) Release(_ context.Context, scheduleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, scheduleID)
	return nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.held)
	return nil
}

// Held reports whether the schedule is currently locked.
func (m *MemoryStore) Held(scheduleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[scheduleID]
	return ok
}

var _ Store = (*MemoryStore)(nil)
