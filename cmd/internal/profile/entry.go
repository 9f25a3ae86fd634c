package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/cache"
)

// entryVersion lets a future schema change invalidate old entries.
// Bump only when the persisted shape becomes incompatible.
const entryVersion = 1

// CachedEntry is the persisted snapshot of a resolved profile.
//
// Timestamp is informational only; entries never expire. A stale snapshot is
// preferred over an empty screen when the remote store is unreachable.
type CachedEntry struct {
	Version   int                       `json:"version"`
	Profile   identity.Profile          `json:"profile"`
	Extended  *identity.ExtendedProfile `json:"extended_profile,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// CacheKey derives the store key for a principal's profile snapshot.
func CacheKey(identityID string) string {
	return "profile:" + identityID
}

// readEntry loads and decodes a cached snapshot. Any failure is a miss.
func readEntry(ctx context.Context, store cache.Store, identityID string) (CachedEntry, bool) {
	data, err := store.Get(ctx, CacheKey(identityID))
	if err != nil {
		return CachedEntry{}, false
	}

	var e CachedEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return CachedEntry{}, false
	}
	if e.Version != entryVersion || e.Profile.ID == "" {
		return CachedEntry{}, false
	}
	return e, true
}

// writeEntry persists a fresh snapshot with the current timestamp.
func writeEntry(ctx context.Context, store cache.Store, e CachedEntry) error {
	e.Version = entryVersion
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return store.Set(ctx, CacheKey(e.Profile.ID), data)
}
