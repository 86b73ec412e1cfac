package cache

import (
	"context"
	"encoding/json"
	"time"

	dom "github.com/haflows/tasknotify/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix    = "task:list:"
	keyPendingPrefix = "task:pending:"
)

// TaskCache caches per-user task lists in Redis. Every write path must
// invalidate, so reads after a write always hit Postgres.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached full list for a user, or nil on miss.
func (c *TaskCache) GetList(ctx context.Context, userID string) ([]dom.Task, error) {
	return c.get(ctx, keyListPrefix+userID)
}

// SetList stores the full list for a user.
func (c *TaskCache) SetList(ctx context.Context, userID string, list []dom.Task) error {
	return c.set(ctx, keyListPrefix+userID, list)
}

// GetPending returns the cached pending list for a user, or nil on miss.
func (c *TaskCache) GetPending(ctx context.Context, userID string) ([]dom.Task, error) {
	return c.get(ctx, keyPendingPrefix+userID)
}

// SetPending stores the pending list for a user.
func (c *TaskCache) SetPending(ctx context.Context, userID string, list []dom.Task) error {
	return c.set(ctx, keyPendingPrefix+userID, list)
}

// Invalidate removes every cached list for a user (called on any write).
func (c *TaskCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, keyListPrefix+userID, keyPendingPrefix+userID).Err()
}

func (c *TaskCache) get(ctx context.Context, key string) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TaskCache) set(ctx context.Context, key string, list []dom.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
