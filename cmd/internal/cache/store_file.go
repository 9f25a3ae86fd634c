package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists one JSON file per key under a directory.
//
// Filenames are derived from a hash of the key so arbitrary key strings
// (user ids, prefixed composites) stay filesystem-safe. Writes are atomic
// via temp-file rename so a crash never leaves a half-written entry.
type FileStore struct {
	dir string
}

// fileEntry is the on-disk wrapper. Keeping the original key alongside the
// value makes the directory inspectable and guards against hash collisions.
type fileEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// NewFileStore creates the directory if needed and returns a FileStore.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".json")
}

// Get implements Store. Any unreadable or corrupt entry is a miss.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, ErrNotFound
	}

	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, ErrNotFound
	}
	if e.Key != key || len(e.Value) == 0 {
		return nil, ErrNotFound
	}
	return e.Value, nil
}

// Set implements Store.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(fileEntry{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	dst := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("cache: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: close entry: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: commit entry: %w", err)
	}
	return nil
}

// Remove implements Store.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: remove entry: %w", err)
	}
	return nil
}
