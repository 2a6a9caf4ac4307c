// Package cache provides the cache type constants.
package cache

// Type represents the type of cache.
type Type string

const (
	// TypeMemory keeps memoized results inside the process.
	TypeMemory Type = "memory"
	// TypeRedis represents a Redis cache shared between processes.
	TypeRedis Type = "redis"
)
