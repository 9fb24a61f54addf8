// Package storage holds the URL record model and the in-process Store
// backends: an in-memory index and a JSON-lines file that is restored into it.
package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the requested short id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateShortID is returned by Create when the short id is already taken.
	ErrDuplicateShortID = errors.New("short id already exists")
)

// URLRecord is a single shortened link.
type URLRecord struct {
	ID        string    `json:"id"`
	ShortID   string    `json:"shortId"`
	LongURL   string    `json:"longUrl"`
	Title     string    `json:"title,omitempty"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
