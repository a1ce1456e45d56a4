// Package cache provides byte caches for remote image data.
//
// The renderer fetches every image referenced by a scene on each conversion.
// Scenes produced by the same editor tend to reuse the same assets (logos,
// backgrounds), so the fetcher can consult a [Cache] before going to the
// network.
//
// # Backends
//
//   - [NullCache]: caching disabled (default)
//   - [FileCache]: one JSON file per entry, for the CLI and single-node servers
//   - [RedisCache]: shared cache for multi-instance deployments
//
// All backends are safe for concurrent use.
//
// # Keys
//
// Keys are opaque strings. Use [Key] to build namespaced keys from arbitrary
// input such as URLs:
//
//	key := cache.Key("image", url) // "image:<sha256>"
package cache

import (
	"context"
	"time"
)

// Cache stores byte values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key. The boolean reports a hit; a miss is
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
