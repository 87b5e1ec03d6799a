package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/railseat/internal/lock"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLockStore holds schedule locks as rows of schedule_locks; the primary
// key makes a second insert for the same schedule fail.
type PGLockStore struct {
	pgBase
	ttl time.Duration
}

// NewLockStore returns a lock store. A positive ttl lets an expired row be
// taken over by the next acquirer.
func NewLockStore(db *pgxpool.Pool, ttl time.Duration) *PGLockStore {
	return &PGLockStore{pgBase: pgBase{db: db}, ttl: ttl}
}

func (s *PGLockStore) TryAcquire(ctx context.Context, scheduleID string) (bool, error) {
	var expiresAt *time.Time
	if s.ttl > 0 {
		if _, err := s.exec(ctx, `DELETE FROM schedule_locks WHERE schedule_id = $1 AND expires_at IS NOT NULL AND expires_at < NOW()`, scheduleID); err != nil {
			return false, fmt.Errorf("clear expired lock: %w", err)
		}
		at := time.Now().Add(s.ttl)
		expiresAt = &at
	}

	_, err := s.exec(ctx, `INSERT INTO schedule_locks (schedule_id, expires_at) VALUES ($1, $2)`, scheduleID, expiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert lock: %w", err)
	}
	return true, nil
}

func (s *PGLockStore) Release(ctx context.Context, scheduleID string) error {
	if _, err := s.exec(ctx, `DELETE FROM schedule_locks WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

func (s *PGLockStore) Reset(ctx context.Context) error {
	if _, err := s.exec(ctx, `DELETE FROM schedule_locks`); err != nil {
		return fmt.Errorf("delete locks: %w", err)
	}
	return nil
}

var _ lock.Store = (*PGLockStore)(nil)
