package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/metrics"
	"github.com/atinyakov/linkshelf/internal/storage"
)

// Store decorates a service.Store. Only FindByShortID is served from cache;
// misses are never cached, so a new id resolves as soon as Create returns.
// Cache errors are logged and the inner store answers instead.
//
// mu orders read-through fills against deletes: a fill holds the read lock
// from the L2 lookup until L1 is written, a delete holds the write lock until
// both layers are evicted. L1 hits take no lock.
type Store struct {
	mu     sync.RWMutex
	inner  service.Store
	local  *LocalCache
	remote *RemoteCache
	logger *zap.Logger
}

// New wraps inner. Either layer may be nil.
func New(inner service.Store, local *LocalCache, remote *RemoteCache, logger *zap.Logger) *Store {
	return &Store{
		inner:  inner,
		local:  local,
		remote: remote,
		logger: logger,
	}
}

func (s *Store) Create(ctx context.Context, r storage.URLRecord) (*storage.URLRecord, error) {
	created, err := s.inner.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, *created)
	return created, nil
}

func (s *Store) FindByShortID(ctx context.Context, shortID string) (*storage.URLRecord, error) {
	if s.local != nil {
		if r, ok := s.local.Get(shortID); ok {
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return &r, nil
		}
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.remote != nil {
		r, ok, err := s.remote.Get(ctx, shortID)
		switch {
		case err != nil:
			metrics.CacheOperations.WithLabelValues("l2", "error").Inc()
			s.logger.Warn("redis get failed", zap.String("shortId", shortID), zap.Error(err))
		case ok:
			metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
			if s.local != nil {
				s.local.Set(r)
			}
			return &r, nil
		default:
			metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		}
	}

	r, err := s.inner.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, *r)
	return r, nil
}

func (s *Store) FindByOwnerID(ctx context.Context, ownerID string) ([]storage.URLRecord, error) {
	return s.inner.FindByOwnerID(ctx, ownerID)
}

func (s *Store) DeleteByShortID(ctx context.Context, shortID string) (*storage.URLRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.inner.DeleteByShortID(ctx, shortID)
	s.evict(ctx, shortID)
	return removed, err
}

func (s *Store) PingContext(ctx context.Context) error {
	return s.inner.PingContext(ctx)
}

func (s *Store) fill(ctx context.Context, r storage.URLRecord) {
	if s.local != nil {
		s.local.Set(r)
	}
	if s.remote != nil {
		if err := s.remote.Set(ctx, r); err != nil {
			s.logger.Warn("redis set failed", zap.String("shortId", r.ShortID), zap.Error(err))
		}
	}
}

func (s *Store) evict(ctx context.Context, shortID string) {
	if s.local != nil {
		s.local.Del(shortID)
	}
	if s.remote != nil {
		if err := s.remote.Del(ctx, shortID); err != nil {
			s.logger.Warn("redis del failed", zap.String("shortId", shortID), zap.Error(err))
		}
	}
}

// Close releases the local cache.
func (s *Store) Close() {
	if s.local != nil {
		s.local.Close()
	}
}
