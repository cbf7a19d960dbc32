// Package cache stores computed layouts and metric reports by content key.
//
// A [Cache] is a plain byte store with per-entry TTLs. Three backends are
// provided:
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys are produced by a [Keyer] from content hashes, so the same graph laid
// out with the same settings always maps to the same entry:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(cache.Hash(graphJSON), settings.Hash())
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // use data
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiring entries. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the stored value. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Entry lifetimes.
const (
	// TTLLayout is how long an annotated layout stays cached.
	TTLLayout = 7 * 24 * time.Hour

	// TTLMetrics is how long a metrics report stays cached.
	TTLMetrics = 7 * 24 * time.Hour
)
