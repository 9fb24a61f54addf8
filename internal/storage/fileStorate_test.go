package storage

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countLines(t *testing.T, p string) int {
	t.Helper()

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	require.NoError(t, scanner.Err())
	return n
}

func TestFileStorage_CreateAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "urls.json")

	fs, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)
	defer fs.Close()

	ctx := context.Background()
	_, err = fs.Create(ctx, URLRecord{ShortID: "abc1234", LongURL: "https://example.com", OwnerID: "u1"})
	require.NoError(t, err)
	_, err = fs.Create(ctx, URLRecord{ShortID: "def5678", LongURL: "https://example.org", OwnerID: "u1"})
	require.NoError(t, err)

	_, err = fs.Create(ctx, URLRecord{ShortID: "abc1234", LongURL: "https://other.com", OwnerID: "u2"})
	assert.ErrorIs(t, err, ErrDuplicateShortID)

	assert.Equal(t, 2, countLines(t, path))
}

func TestFileStorage_Restore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	fs, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)

	created, err := fs.Create(ctx, URLRecord{ShortID: "abc1234", LongURL: "https://example.com", OwnerID: "u1", Title: "home"})
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	reopened, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindByShortID(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "https://example.com", found.LongURL)
	assert.Equal(t, "home", found.Title)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

	records, err := reopened.FindByOwnerID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileStorage_DeleteRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	fs, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)

	for _, id := range []string{"s1aaaaa", "s2bbbbb", "s3ccccc"} {
		_, err := fs.Create(ctx, URLRecord{ShortID: id, LongURL: "https://example.com/" + id, OwnerID: "u1"})
		require.NoError(t, err)
	}

	_, err = fs.DeleteByShortID(ctx, "s2bbbbb")
	require.NoError(t, err)

	_, err = fs.DeleteByShortID(ctx, "s2bbbbb")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 2, countLines(t, path))

	// appends after a rewrite land after the surviving lines
	_, err = fs.Create(ctx, URLRecord{ShortID: "s4ddddd", LongURL: "https://example.com/s4", OwnerID: "u1"})
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	reopened, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.FindByShortID(ctx, "s2bbbbb")
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := reopened.FindByOwnerID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFileStorage_DeleteKeepsRecordWhenRewriteFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	fs, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)

	_, err = fs.Create(ctx, URLRecord{ShortID: "abc1234", LongURL: "https://example.com", OwnerID: "u1"})
	require.NoError(t, err)

	// a closed descriptor makes the rewrite fail
	require.NoError(t, fs.file.Close())

	_, err = fs.DeleteByShortID(ctx, "abc1234")
	require.Error(t, err)

	got, err := fs.FindByShortID(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.LongURL)

	owned, err := fs.FindByOwnerID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	// restart sees the same state
	reopened, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.FindByShortID(ctx, "abc1234")
	assert.NoError(t, err)
}

func TestFileStorage_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0600))

	_, err := NewFileStorage(path, zap.NewNop())
	assert.Error(t, err)
}

func TestFileStorage_PingContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")

	fs, err := NewFileStorage(path, zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, fs.PingContext(context.Background()))
	require.NoError(t, fs.Close())
	assert.Error(t, fs.PingContext(context.Background()))
}
