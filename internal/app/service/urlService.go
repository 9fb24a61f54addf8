// Package service implements the link shortening core: id generation,
// shortening with collision retry, resolution, per-owner listing and
// deletion, plus the bearer token helper the transports authenticate with.
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/metrics"
	"github.com/atinyakov/linkshelf/internal/storage"
)

// DefaultMaxAttempts is how many fresh ids Shorten tries before giving up.
const DefaultMaxAttempts = 3

type URLService struct {
	store          Store
	generator      IDGenerator
	logger         *zap.Logger
	baseURL        string
	redirectPrefix string
	maxAttempts    int
}

// Option tweaks a URLService at construction.
type Option func(*URLService)

// WithMaxAttempts bounds the collision retry loop. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *URLService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRedirectPrefix sets the path segment between the base URL and the id.
func WithRedirectPrefix(prefix string) Option {
	return func(s *URLService) {
		s.redirectPrefix = strings.Trim(prefix, "/")
	}
}

func NewURL(store Store, generator IDGenerator, logger *zap.Logger, baseURL string, opts ...Option) *URLService {
	s := &URLService{
		store:          store,
		generator:      generator,
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		redirectPrefix: "url",
		maxAttempts:    DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *URLService) PingContext(ctx context.Context) error {
	return s.store.PingContext(ctx)
}

// ShortURL renders the public address of shortID.
func (s *URLService) ShortURL(shortID string) string {
	if s.redirectPrefix == "" {
		return s.baseURL + "/" + shortID
	}
	return s.baseURL + "/" + s.redirectPrefix + "/" + shortID
}

func validLongURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// Shorten stores longURL under a fresh short id owned by ownerID and
// returns its public address. A taken id is retried with a new one up to
// the configured number of attempts.
func (s *URLService) Shorten(ctx context.Context, longURL, title, ownerID string) (string, *storage.URLRecord, error) {
	if longURL == "" {
		return "", nil, validationError("longUrl is required")
	}
	if !validLongURL(longURL) {
		return "", nil, validationError("Invalid URL")
	}
	if ownerID == "" {
		return "", nil, validationError("User ID is missing")
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		shortID, err := s.generator.Generate()
		if err != nil {
			return "", nil, storageError("failed to generate short id", err)
		}

		created, err := s.store.Create(ctx, storage.URLRecord{
			ShortID: shortID,
			LongURL: longURL,
			Title:   title,
			OwnerID: ownerID,
		})
		if err == nil {
			metrics.LinksShortened.Inc()
			return s.ShortURL(created.ShortID), created, nil
		}

		if !errors.Is(err, storage.ErrDuplicateShortID) {
			s.logger.Error("failed to create record", zap.String("ownerId", ownerID), zap.Error(err))
			return "", nil, storageError("failed to save url", err)
		}

		metrics.IDCollisions.Inc()
		s.logger.Warn("short id collision", zap.String("shortId", shortID), zap.Int("attempt", attempt))
		lastErr = err
	}

	return "", nil, storageError("could not allocate a unique short id", lastErr)
}

// Resolve returns the long URL stored under shortID. It never writes.
func (s *URLService) Resolve(ctx context.Context, shortID string) (string, error) {
	if shortID == "" {
		return "", validationError("Invalid input: Url short ID is required")
	}

	r, err := s.store.FindByShortID(ctx, shortID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.Resolutions.WithLabelValues("not_found").Inc()
			return "", notFoundError("Url not found")
		}
		metrics.Resolutions.WithLabelValues("error").Inc()
		return "", storageError("failed to resolve url", err)
	}

	metrics.Resolutions.WithLabelValues("found").Inc()
	return r.LongURL, nil
}

// List returns every record owned by ownerID; never nil.
func (s *URLService) List(ctx context.Context, ownerID string) ([]storage.URLRecord, error) {
	if ownerID == "" {
		return []storage.URLRecord{}, nil
	}

	records, err := s.store.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, storageError("failed to list urls", err)
	}
	if records == nil {
		records = []storage.URLRecord{}
	}
	return records, nil
}

// Delete removes shortID. A non-empty callerID must own the record; an
// empty one is treated as a trusted internal caller.
func (s *URLService) Delete(ctx context.Context, shortID, callerID string) error {
	if shortID == "" {
		return validationError("Invalid input: Url short ID is required")
	}

	r, err := s.store.FindByShortID(ctx, shortID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFoundError("Url not found")
		}
		return storageError("failed to look up url", err)
	}

	if callerID != "" && r.OwnerID != callerID {
		s.logger.Info("delete refused", zap.String("shortId", shortID), zap.String("callerId", callerID))
		return forbiddenError("Url belongs to another user")
	}

	if _, err := s.store.DeleteByShortID(ctx, shortID); err != nil {
		// removed concurrently between lookup and delete
		if errors.Is(err, storage.ErrNotFound) {
			return notFoundError("Url not found")
		}
		return storageError("failed to delete url", err)
	}

	metrics.Deletions.Inc()
	return nil
}
