// Package interfaces defines the contracts between the ingestion core and its collaborators.
// Every network, storage and logging dependency is injected through these interfaces so
// the pipeline can be tested in isolation.
package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache implementations when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache defines the key/value store used for source configs and oracle memoization.
// Implementations exist for in-memory, Redis and SQLite backends.
//
// Example usage:
//
//	// Store a resolved config indefinitely
//	err := cache.Set(ctx, "source_config:coindesk", raw, 0)
//
//	// Retrieve it on the next pass
//	data, err := cache.Get(ctx, "source_config:coindesk")
//	if errors.Is(err, interfaces.ErrCacheMiss) {
//		// resolve from the oracle or hints
//	}
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the given key and TTL.
	// If ttl is 0, the value should be stored indefinitely.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache by key.
	// Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}
