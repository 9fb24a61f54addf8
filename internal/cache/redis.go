package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/linkshelf/internal/storage"
)

const keyPrefix = "sl:"

// redisClient is the subset of *redis.Client the shared layer uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient connects and pings so misconfiguration fails at startup.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return client, nil
}

// RemoteCache is the shared L2 layer. Records are stored as JSON.
type RemoteCache struct {
	client redisClient
	ttl    time.Duration
}

func NewRemoteCache(client redisClient, ttl time.Duration) *RemoteCache {
	return &RemoteCache{client: client, ttl: ttl}
}

// Get reports ok=false with a nil error on a plain miss.
func (c *RemoteCache) Get(ctx context.Context, shortID string) (storage.URLRecord, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+shortID).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.URLRecord{}, false, nil
	}
	if err != nil {
		return storage.URLRecord{}, false, err
	}

	var r storage.URLRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return storage.URLRecord{}, false, fmt.Errorf("decode cached record: %w", err)
	}
	return r, true, nil
}

func (c *RemoteCache) Set(ctx context.Context, r storage.URLRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+r.ShortID, b, c.ttl).Err()
}

func (c *RemoteCache) Del(ctx context.Context, shortID string) error {
	return c.client.Del(ctx, keyPrefix+shortID).Err()
}
