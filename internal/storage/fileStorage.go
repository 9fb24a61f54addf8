package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStorage persists records as JSON lines. The whole file is loaded into
// a MemoryStorage on open; lookups never touch the disk.
type FileStorage struct {
	*MemoryStorage

	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

// NewFileStorage opens (or creates) the file at p and restores its records.
func NewFileStorage(p string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0770); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	file, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, fmt.Errorf("open storage file: %w", err)
	}

	mem, _ := CreateMemoryStorage()
	fs := &FileStorage{
		MemoryStorage: mem,
		file:          file,
		logger:        logger,
	}

	n, err := fs.load()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	logger.Info("file storage restored", zap.String("path", p), zap.Int("records", n))

	return fs, nil
}

func (fs *FileStorage) load() (int, error) {
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	n := 0
	scanner := bufio.NewScanner(fs.file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r URLRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return n, fmt.Errorf("failed to parse JSON line %d: %w", n+1, err)
		}
		// a create racing a rewrite can leave the same line twice
		if _, dup := fs.MemoryStorage.byShort[r.ShortID]; dup {
			continue
		}
		fs.MemoryStorage.put(r)
		n++
	}

	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("error reading file: %w", err)
	}

	_, err := fs.file.Seek(0, io.SeekEnd)
	return n, err
}

// Create inserts into memory and appends one line to the file. A failed
// write removes the record again so memory and disk stay in step.
func (fs *FileStorage) Create(ctx context.Context, r URLRecord) (*URLRecord, error) {
	created, err := fs.MemoryStorage.Create(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := fs.append(*created); err != nil {
		_, _ = fs.MemoryStorage.DeleteByShortID(ctx, created.ShortID)
		return nil, fmt.Errorf("append record: %w", err)
	}

	return created, nil
}

func (fs *FileStorage) append(r URLRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, err = fs.file.Write(append(b, '\n'))
	return err
}

// DeleteByShortID removes the record and rewrites the file without it. When
// the rewrite fails the record is restored in memory, so memory and disk agree.
func (fs *FileStorage) DeleteByShortID(ctx context.Context, shortID string) (*URLRecord, error) {
	removed, err := fs.MemoryStorage.DeleteByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}

	if err := fs.rewrite(); err != nil {
		fs.MemoryStorage.reinsert(*removed)
		fs.logger.Error("failed to rewrite storage file", zap.String("shortId", shortID), zap.Error(err))
		return nil, fmt.Errorf("rewrite storage file: %w", err)
	}

	return removed, nil
}

func (fs *FileStorage) rewrite() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	records := fs.MemoryStorage.snapshot()

	if err := fs.file.Truncate(0); err != nil {
		return err
	}
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	w := bufio.NewWriter(fs.file)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return fs.file.Sync()
}

// PingContext reports whether the backing file is still usable.
func (fs *FileStorage) PingContext(_ context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, err := fs.file.Stat()
	return err
}

func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.file.Close()
}
