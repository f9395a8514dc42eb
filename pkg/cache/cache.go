// Package cache provides byte caches for rendered artifacts and index
// snapshots, keyed through a Keyer so key construction stays in one place.
//
// Three implementations exist: FileCache for single-host CLI usage,
// RedisCache for multi-instance deployments of the index API, and NullCache
// for tests and --no-cache runs.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTLs.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer builds cache keys for the engine's cacheable values.
type Keyer interface {
	// SnapshotKey is the key for the serialized index snapshot.
	SnapshotKey() string

	// GraphKey identifies one rendered dependency sub-graph.
	GraphKey(seed string, reverse bool) string

	// ArtifactKey identifies one rendered artifact by DOT source hash and
	// output format.
	ArtifactKey(dotHash, format string) string
}

// DefaultKeyer hashes key components so keys stay short and collision-free.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey implements Keyer.
func (k *DefaultKeyer) SnapshotKey() string {
	return hashKey("snapshot")
}

// GraphKey implements Keyer.
func (k *DefaultKeyer) GraphKey(seed string, reverse bool) string {
	return hashKey("graph", seed, reverse)
}

// ArtifactKey implements Keyer.
func (k *DefaultKeyer) ArtifactKey(dotHash, format string) string {
	return hashKey("artifact", dotHash, format)
}
