package lock

import (
	"context"
	"time"
)

// KeyValueLocker is a key-value backend with set-if-absent semantics, such
// as the Redis cache.
type KeyValueLocker interface {
	AcquireScheduleLock(ctx context.Context, scheduleID string, ttl time.Duration) (bool, error)
	ReleaseScheduleLock(ctx context.Context, scheduleID string) error
	ClearScheduleLocks(ctx context.Context) error
}

type kvStore struct {
	kv  KeyValueLocker
	ttl time.Duration
}

// FromKeyValue adapts a KeyValueLocker. A zero ttl keeps markers until they
// are released.
func FromKeyValue(kv KeyValueLocker, ttl time.Duration) Store {
	return kvStore{kv: kv, ttl: ttl}
}

func (s kvStore) TryAcquire(ctx context.Context, scheduleID string) (bool, error) {
	return s.kv.AcquireScheduleLock(ctx, scheduleID, s.ttl)
}

func (s kvStore) Release(ctx context.Context, scheduleID string) error {
	return s.kv.ReleaseScheduleLock(ctx, scheduleID)
}

func (s kvStore) Reset(ctx context.Context) error {
	return s.kv.ClearScheduleLocks(ctx)
}
