package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/mocks"
	"github.com/atinyakov/linkshelf/internal/storage"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	err  error

	// afterGet runs once, after a Get has read its value.
	afterGet func()
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	hook := f.afterGet
	f.afterGet = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) has(shortID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[keyPrefix+shortID]
	return ok
}

func (f *fakeRedis) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newLocal(t *testing.T) *LocalCache {
	t.Helper()
	l, err := NewLocalCache(100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

var rec = storage.URLRecord{ID: "id-1", ShortID: "abc1234", LongURL: "https://example.com", OwnerID: "u1"}

func TestStore_FindServedFromLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	s := New(inner, local, nil, zap.NewNop())

	inner.EXPECT().FindByShortID(gomock.Any(), "abc1234").Return(&rec, nil).Times(1)

	got, err := s.FindByShortID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, rec.LongURL, got.LongURL)

	local.Wait()

	got, err = s.FindByShortID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, rec.LongURL, got.LongURL)
}

func TestStore_RemoteBackfillsLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	rdb := newFakeRedis()
	remote := NewRemoteCache(rdb, time.Minute)
	require.NoError(t, remote.Set(context.Background(), rec))

	s := New(inner, local, remote, zap.NewNop())

	got, err := s.FindByShortID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, rec.OwnerID, got.OwnerID)

	local.Wait()
	_, ok := local.Get("abc1234")
	assert.True(t, ok)
}

func TestStore_CreateFillsBothLayers(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	rdb := newFakeRedis()
	s := New(inner, local, NewRemoteCache(rdb, time.Minute), zap.NewNop())

	inner.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&rec, nil)

	_, err := s.Create(context.Background(), storage.URLRecord{ShortID: "abc1234", LongURL: rec.LongURL, OwnerID: "u1"})
	require.NoError(t, err)

	local.Wait()
	_, ok := local.Get("abc1234")
	assert.True(t, ok)
	assert.True(t, rdb.has("abc1234"))
}

func TestStore_CreateFailureNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	rdb := newFakeRedis()
	s := New(inner, local, NewRemoteCache(rdb, time.Minute), zap.NewNop())

	inner.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateShortID)

	_, err := s.Create(context.Background(), rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateShortID)

	local.Wait()
	_, ok := local.Get("abc1234")
	assert.False(t, ok)
	assert.False(t, rdb.has("abc1234"))
}

func TestStore_MissIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	s := New(inner, local, nil, zap.NewNop())

	gomock.InOrder(
		inner.EXPECT().FindByShortID(gomock.Any(), "abc1234").Return(nil, storage.ErrNotFound),
		inner.EXPECT().FindByShortID(gomock.Any(), "abc1234").Return(&rec, nil),
	)

	_, err := s.FindByShortID(context.Background(), "abc1234")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.FindByShortID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, rec.LongURL, got.LongURL)
}

func TestStore_DeleteEvicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	rdb := newFakeRedis()
	s := New(inner, local, NewRemoteCache(rdb, time.Minute), zap.NewNop())

	inner.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&rec, nil)
	inner.EXPECT().DeleteByShortID(gomock.Any(), "abc1234").Return(&rec, nil)
	inner.EXPECT().FindByShortID(gomock.Any(), "abc1234").Return(nil, storage.ErrNotFound)

	_, err := s.Create(context.Background(), rec)
	require.NoError(t, err)
	local.Wait()

	removed, err := s.DeleteByShortID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", removed.ShortID)

	_, ok := local.Get("abc1234")
	assert.False(t, ok)
	assert.False(t, rdb.has("abc1234"))

	_, err = s.FindByShortID(context.Background(), "abc1234")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RedisFailureFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	rdb := newFakeRedis()
	rdb.fail(errors.New("connection refused"))
	s := New(inner, nil, NewRemoteCache(rdb, time.Minute), zap.NewNop())

	inner.EXPECT().FindByShortID(gomock.Any(), "abc1234").Return(&rec, nil)
	inner.EXPECT().DeleteByShortID(gomock.Any(), "abc1234").Return(&rec, nil)

	got, err := s.FindByShortID(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.Equal(t, rec.LongURL, got.LongURL)

	_, err = s.DeleteByShortID(context.Background(), "abc1234")
	assert.NoError(t, err)
}

func TestStore_PassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	s := New(inner, nil, nil, zap.NewNop())

	inner.EXPECT().FindByOwnerID(gomock.Any(), "u1").Return([]storage.URLRecord{rec}, nil)
	inner.EXPECT().PingContext(gomock.Any()).Return(nil)

	list, err := s.FindByOwnerID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, s.PingContext(context.Background()))
}

func TestRemoteCache_CorruptValue(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data[keyPrefix+"abc1234"] = "{not json"
	remote := NewRemoteCache(rdb, time.Minute)

	_, ok, err := remote.Get(context.Background(), "abc1234")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestStore_DeleteDuringRemoteHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockStore(ctrl)
	local := newLocal(t)
	rdb := newFakeRedis()
	remote := NewRemoteCache(rdb, time.Minute)
	s := New(inner, local, remote, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, rec))

	reading := make(chan struct{})
	release := make(chan struct{})
	rdb.afterGet = func() {
		close(reading)
		<-release
	}

	inner.EXPECT().DeleteByShortID(gomock.Any(), "abc1234").Return(&rec, nil)
	inner.EXPECT().FindByShortID(gomock.Any(), "abc1234").Return(nil, storage.ErrNotFound)

	found := make(chan error, 1)
	go func() {
		_, err := s.FindByShortID(ctx, "abc1234")
		found <- err
	}()
	<-reading

	deleted := make(chan error, 1)
	go func() {
		_, err := s.DeleteByShortID(ctx, "abc1234")
		deleted <- err
	}()

	// the delete must wait for the in-flight read to finish its backfill
	select {
	case <-deleted:
		t.Fatal("delete finished while a remote hit was being backfilled")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-found)
	require.NoError(t, <-deleted)
	local.Wait()

	_, err := s.FindByShortID(ctx, "abc1234")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, rdb.has("abc1234"))
}
