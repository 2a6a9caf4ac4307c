// Package cache defines the shared cache client used to memoize query results
// across processes.
package cache

import (
	"context"
	"time"
)

// Client is a byte-oriented key/value cache with native expiry.
type Client interface {
	// Get retrieves a value by key. It returns nil, nil if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value that expires after ttl. A zero ttl uses the client default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePattern removes all keys matching a glob pattern and returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Ping checks if the cache connection is alive.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}
