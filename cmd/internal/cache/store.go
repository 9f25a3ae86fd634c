package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key is absent.
// Corrupt or unreadable entries are reported as ErrNotFound on purpose:
// callers treat any read failure identically to a miss.
var ErrNotFound = errors.New("cache entry not found")

// Store is the persisted key/value boundary.
type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value, replacing any previous one.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
