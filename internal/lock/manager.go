// Package lock serialises allocation attempts per schedule. A lock is a
// marker keyed by schedule id; its existence means held. There is no owner
// and no reentrancy, and release is idempotent.
package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/railseat/internal/domain"
)

// Store inserts and removes lock markers.
type Store interface {
	// TryAcquire inserts the marker and reports false if it already exists.
	TryAcquire(ctx context.Context, scheduleID string) (bool, error)
	Release(ctx context.Context, scheduleID string) error
	// Reset drops every marker.
	Reset(ctx context.Context) error
}

const (
	DefaultMaxAttempts = 10
	DefaultRetryDelay  = 100 * time.Millisecond
)

type Manager struct {
	store       Store
	maxAttempts int
	retryDelay  time.Duration
}

type Option func(*Manager)

func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.retryDelay = d
		}
	}
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire blocks for at most maxAttempts tries spaced by retryDelay. When
// every try finds the marker present it returns ErrLockTimeout. Store
// failures are returned as they are; they are not contention.
func (m *Manager) Acquire(ctx context.Context, scheduleID string) error {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		ok, err := m.store.TryAcquire(ctx, scheduleID)
		if err != nil {
			return fmt.Errorf("acquire lock on schedule %s: %w", scheduleID, err)
		}
		if ok {
			return nil
		}
		if attempt == m.maxAttempts {
			break
		}

		timer := time.NewTimer(m.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: schedule %s: %v", domain.ErrLockTimeout, scheduleID, ctx.Err())
		case <-timer.C:
		}
	}
	log.Printf("lock: schedule %s still held after %d attempts", scheduleID, m.maxAttempts)
	return fmt.Errorf("%w: schedule %s", domain.ErrLockTimeout, scheduleID)
}

// ReleaseAll drops every lock, held or stale. Only for a full reset of the
// reservation state.
func (m *Manager) ReleaseAll(ctx context.Context) error {
	if err := m.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset locks: %w", err)
	}
	return nil
}

// Release removes the marker. Releasing a lock that is not held is fine.
func (m *Manager) Release(ctx context.Context, scheduleID string) error {
	if err := m.store.Release(ctx, scheduleID); err != nil {
		return fmt.Errorf("release lock on schedule %s: %w", scheduleID, err)
	}
	return nil
}
