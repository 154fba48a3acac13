// Package cache stores rendered artifacts keyed by the content they were
// rendered from.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (API servers)
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: caching disabled
//
// [Scoped] prefixes every key so several deployments can share one backend,
// and [Instrument] reports hits, misses and writes to the registered
// observability hooks.
//
// # Keys
//
// Keys are derived from content hashes, never from file names: the same DOT
// text rendered with the same engine, format and renderer always maps to the
// same key.
//
//	key := cache.ArtifactKey(cache.Hash([]byte(dotText)), "dot", "svg", "exec")
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend failed.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour

// KeyTypeArtifact is the key type reported to cache hooks for rendered
// artifacts.
const KeyTypeArtifact = "artifact"

// ArtifactKey returns the key for the output of rendering DOT text with the
// given content hash, engine and format. The renderer tag separates
// artifacts from renderers that may produce different bytes for the same
// input; it may be empty.
func ArtifactKey(dotHash, engine, format, renderer string) string {
	return hashKey(KeyTypeArtifact, dotHash, engine, format, renderer)
}
