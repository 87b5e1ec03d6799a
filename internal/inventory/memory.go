package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/Domenick1991/railseat/internal/seatmap"
)

// MemoryStore keeps seat bitmaps in process. It honours the same
// compare-and-set contract as the Postgres store.
type MemoryStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

// Put registers an empty schedule of the given shape.
func (m *MemoryStore) Put(scheduleID string, rows, columns int) error {
	g, err := seatmap.New(rows, columns)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[scheduleID] = Snapshot{Rows: rows, Columns: columns, Bitmap: g.Bytes()}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, scheduleID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[scheduleID]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, scheduleID)
	}
	snap.Bitmap = append([]byte(nil), snap.Bitmap...)
	return snap, nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, scheduleID string, version int64, bitmap []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[scheduleID]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, scheduleID)
	}
	if snap.Version != version {
		return false, nil
	}
	snap.Bitmap = append([]byte(nil), bitmap...)
	snap.Version++
	m.snaps[scheduleID] = snap
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
