package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage keeps records in process memory. Short ids are the primary
// key; a secondary index keeps every owner's ids in insertion order.
type MemoryStorage struct {
	mu      sync.RWMutex
	byShort map[string]URLRecord
	byOwner map[string][]string
	now     func() time.Time
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		byShort: make(map[string]URLRecord),
		byOwner: make(map[string][]string),
		now:     time.Now,
	}, nil
}

// Create stores r and fills in ID, CreatedAt and UpdatedAt. The uniqueness
// check and the insert happen under one lock.
func (m *MemoryStorage) Create(_ context.Context, r URLRecord) (*URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byShort[r.ShortID]; exists {
		return nil, ErrDuplicateShortID
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		ts := m.now().UTC()
		r.CreatedAt = ts
		r.UpdatedAt = ts
	}

	m.put(r)
	return &r, nil
}

// put inserts without checks. Callers hold the write lock.
func (m *MemoryStorage) put(r URLRecord) {
	m.byShort[r.ShortID] = r
	m.byOwner[r.OwnerID] = append(m.byOwner[r.OwnerID], r.ShortID)
}

// reinsert puts r back unless its short id was taken in the meantime.
func (m *MemoryStorage) reinsert(r URLRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byShort[r.ShortID]; !exists {
		m.put(r)
	}
}

func (m *MemoryStorage) FindByShortID(_ context.Context, shortID string) (*URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byShort[shortID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStorage) FindByOwnerID(_ context.Context, ownerID string) ([]URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byOwner[ownerID]
	records := make([]URLRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, m.byShort[id])
	}
	return records, nil
}

func (m *MemoryStorage) DeleteByShortID(_ context.Context, shortID string) (*URLRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byShort[shortID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.byShort, shortID)

	ids := m.byOwner[r.OwnerID]
	for i, id := range ids {
		if id == shortID {
			m.byOwner[r.OwnerID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(m.byOwner[r.OwnerID]) == 0 {
		delete(m.byOwner, r.OwnerID)
	}

	return &r, nil
}

// snapshot returns all records ordered by creation time.
func (m *MemoryStorage) snapshot() []URLRecord {
	m.mu.RLock()
	records := make([]URLRecord, 0, len(m.byShort))
	for _, r := range m.byShort {
		records = append(records, r)
	}
	m.mu.RUnlock()

	slices.SortStableFunc(records, func(a, b URLRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return records
}

// PingContext always succeeds; there is nothing to connect to.
func (m *MemoryStorage) PingContext(_ context.Context) error {
	return nil
}
