package service

import (
	"context"

	"github.com/atinyakov/linkshelf/internal/storage"
)

//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks github.com/atinyakov/linkshelf/internal/app/service Store
//go:generate mockgen -destination=../../mocks/mock_generator.go -package=mocks github.com/atinyakov/linkshelf/internal/app/service IDGenerator
//go:generate mockgen -destination=../../mocks/mock_url_service.go -package=mocks github.com/atinyakov/linkshelf/internal/app/service URLServiceIface
//go:generate mockgen -destination=../../mocks/mock_auth.go -package=mocks github.com/atinyakov/linkshelf/internal/app/service AuthIface

// Store is the persistence contract the URL service depends on.
// Create must reject a taken short id with storage.ErrDuplicateShortID
// atomically; lookups and deletes report storage.ErrNotFound.
type Store interface {
	Create(context.Context, storage.URLRecord) (*storage.URLRecord, error)
	FindByShortID(context.Context, string) (*storage.URLRecord, error)
	FindByOwnerID(context.Context, string) ([]storage.URLRecord, error)
	DeleteByShortID(context.Context, string) (*storage.URLRecord, error)
	PingContext(context.Context) error
}

// IDGenerator produces candidate short ids. It must not consult the store.
type IDGenerator interface {
	Generate() (string, error)
}

// URLServiceIface is what the HTTP handlers and the gRPC server call.
type URLServiceIface interface {
	Shorten(ctx context.Context, longURL, title, ownerID string) (string, *storage.URLRecord, error)
	Resolve(ctx context.Context, shortID string) (string, error)
	List(ctx context.Context, ownerID string) ([]storage.URLRecord, error)
	Delete(ctx context.Context, shortID, callerID string) error
	ShortURL(shortID string) string
	PingContext(ctx context.Context) error
}
