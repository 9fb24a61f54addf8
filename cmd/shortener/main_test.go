package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atinyakov/linkshelf/internal/cache"
	"github.com/atinyakov/linkshelf/internal/config"
	"github.com/atinyakov/linkshelf/internal/logger"
	"github.com/atinyakov/linkshelf/internal/storage"
)

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "v1.0.0", orNA("v1.0.0"))
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		opts := config.Default()
		store, closeStore, err := newStore(ctx, opts, zap.NewNop())
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &storage.MemoryStorage{}, store)
	})

	t.Run("file when path set", func(t *testing.T) {
		opts := config.Default()
		opts.FilePath = filepath.Join(t.TempDir(), "links.json")
		store, closeStore, err := newStore(ctx, opts, zap.NewNop())
		require.NoError(t, err)
		defer closeStore()
		assert.IsType(t, &storage.FileStorage{}, store)
	})
}

func TestWithCache(t *testing.T) {
	ctx := context.Background()
	inner, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	t.Run("disabled", func(t *testing.T) {
		opts := config.Default()
		opts.CacheEnabled = false
		store, closeCache, err := withCache(ctx, inner, opts, zap.NewNop())
		require.NoError(t, err)
		defer closeCache()
		assert.Same(t, inner, store)
	})

	t.Run("local only", func(t *testing.T) {
		opts := config.Default()
		opts.CacheEnabled = true
		opts.RedisAddr = ""
		store, closeCache, err := withCache(ctx, inner, opts, zap.NewNop())
		require.NoError(t, err)
		defer closeCache()
		assert.IsType(t, &cache.Store{}, store)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	opts := config.Default()
	opts.Port = "127.0.0.1:0"
	opts.GRPCPort = "127.0.0.1:0"
	opts.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, opts, zap.NewNop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

type syncRecorder struct {
	bytes.Buffer
	synced bool
}

func (s *syncRecorder) Sync() error {
	s.synced = true
	return nil
}

func TestFailFlushesBeforePanic(t *testing.T) {
	sink := &syncRecorder{}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, zap.InfoLevel)
	log := &logger.Logger{Log: zap.New(core)}

	boom := errors.New("listen tcp :8080: address already in use")
	assert.PanicsWithError(t, boom.Error(), func() { fail(log, boom) })

	assert.True(t, sink.synced)
	assert.Contains(t, sink.String(), "shutdown with error")
	assert.Contains(t, sink.String(), "address already in use")
}
