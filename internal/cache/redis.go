package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/railseat/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client       *redis.Client
	schedulesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, schedulesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		schedulesTTL: schedulesTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSchedules loads a cached listing into dst. It reports false on a miss.
func (c *RedisCache) GetSchedules(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, schedulesKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) SetSchedules(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, schedulesKey(key), payload, c.schedulesTTL).Err()
}

// AcquireScheduleLock sets the lock marker only if it is absent. A zero ttl
// keeps the marker until ReleaseScheduleLock.
func (c *RedisCache) AcquireScheduleLock(ctx context.Context, scheduleID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, scheduleLockKey(scheduleID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseScheduleLock(ctx context.Context, scheduleID string) error {
	return c.client.Del(ctx, scheduleLockKey(scheduleID)).Err()
}

// ClearScheduleLocks deletes every schedule lock marker.
func (c *RedisCache) ClearScheduleLocks(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, scheduleLockKey("*"), 100).Iterator()
	keys := make([]string, 0, 100)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == cap(keys) {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

func schedulesKey(key string) string {
	return "cache:schedules:" + key
}

func scheduleLockKey(scheduleID string) string {
	return fmt.Sprintf("lock:schedule:%s", scheduleID)
}
