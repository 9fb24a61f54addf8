// Package cache puts a two-level read-through cache in front of a Store:
// an in-process ristretto cache and an optional shared Redis layer.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/atinyakov/linkshelf/internal/storage"
)

// LocalCache is the per-instance L1 layer.
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache sizes the cache by entry count; every record costs 1.
func NewLocalCache(maxItems int64, ttl time.Duration) (*LocalCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &LocalCache{cache: c, ttl: ttl}, nil
}

func (l *LocalCache) Get(shortID string) (storage.URLRecord, bool) {
	v, ok := l.cache.Get(shortID)
	if !ok {
		return storage.URLRecord{}, false
	}
	r, ok := v.(storage.URLRecord)
	return r, ok
}

// Set is applied asynchronously by ristretto; call Wait to observe it.
func (l *LocalCache) Set(r storage.URLRecord) {
	l.cache.SetWithTTL(r.ShortID, r, 1, l.ttl)
}

// Del waits for ristretto's buffers to drain, so a Set queued earlier
// cannot land after the delete.
func (l *LocalCache) Del(shortID string) {
	l.cache.Del(shortID)
	l.cache.Wait()
}

// Wait blocks until buffered writes are applied.
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
