package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores a snapshot under a single Redis key.
// SET replaces the value in one step, which gives the atomic overwrite.
type RedisCache struct {
	rdb *redis.Client
	key string
}

// NewRedisCache creates a cache storing the snapshot under key
func NewRedisCache(rdb *redis.Client, key string) *RedisCache {
	return &RedisCache{rdb: rdb, key: key}
}

// Load fetches and decodes the stored snapshot
func (c *RedisCache) Load(ctx context.Context) (*Snapshot, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	return decodeSnapshot(data)
}

// Save stores the snapshot without expiry; staleness is decided by the loader
func (c *RedisCache) Save(ctx context.Context, s Snapshot) error {
	data, err := encodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("encode directory snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}
