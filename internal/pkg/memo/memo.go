// Package memo provides a process-wide memoizing cache keyed by operation and
// canonical arguments, with a time-to-live chosen per call.
//
// An entry is valid while now - createdAt < ttl. A miss runs the producer and
// replaces the entry with a fresh timestamp; there is no other eviction. A ttl of
// zero or less bypasses the cache entirely. Concurrent misses on one key share a
// single producer call.
package memo

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached result and the time it was computed.
type Entry struct {
	Value     interface{}
	CreatedAt time.Time
}

// Decoder rebuilds a typed value from its BSON form. Stores that keep values
// in process ignore it.
type Decoder func(raw bson.Raw) (interface{}, error)

// Store persists entries.
type Store interface {
	// Get returns the entry for key, or nil if there is none.
	Get(ctx context.Context, key string, decode Decoder) (*Entry, error)

	// Set replaces the entry for key. ttl is a hint for stores with native expiry.
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// Reset drops every entry.
	Reset(ctx context.Context) error
}

// Stats counts cache outcomes since creation.
type Stats struct {
	Hits     int64
	Misses   int64
	Bypassed int64
}

// Memoizer runs producers through a Store.
type Memoizer struct {
	store   Store
	group   singleflight.Group
	now     func() time.Time
	onError func(error)

	hits     atomic.Int64
	misses   atomic.Int64
	bypassed atomic.Int64
}

// Option configures a Memoizer.
type Option func(*Memoizer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memoizer) {
		m.now = now
	}
}

// WithErrorHandler receives store failures. Store failures never fail a call:
// a failed read is a miss and a failed write is dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Memoizer) {
		m.onError = fn
	}
}

// New creates a Memoizer. A nil store defaults to a MemoryStore.
func New(store Store, opts ...Option) *Memoizer {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Memoizer{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stats returns a snapshot of the hit and miss counters.
func (m *Memoizer) Stats() Stats {
	return Stats{
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
		Bypassed: m.bypassed.Load(),
	}
}

// Reset drops all cached entries.
func (m *Memoizer) Reset(ctx context.Context) error {
	return m.store.Reset(ctx)
}

// Do returns the cached value for key if it is younger than ttl, otherwise
// it calls fn and caches the result. Errors from fn are returned and never cached.
// Results are shared between callers and must be treated as read-only.
func Do[T any](ctx context.Context, m *Memoizer, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if ttl <= 0 {
		m.bypassed.Add(1)
		return fn(ctx)
	}

	if v, ok := m.lookup(ctx, key, ttl, decodeAs[T]); ok {
		return v.(T), nil
	}

	// The producer is shared by every caller waiting on key, so it runs detached
	// from the first caller's cancellation. Each caller still stops waiting when
	// its own context is done.
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (interface{}, error) {
		// Another caller may have refreshed the entry while this one waited.
		if v, ok := m.lookup(shared, key, ttl, decodeAs[T]); ok {
			return v, nil
		}

		m.misses.Add(1)
		result, err := fn(shared)
		if err != nil {
			return nil, err
		}

		entry := &Entry{Value: result, CreatedAt: m.now()}
		if err := m.store.Set(shared, key, entry, ttl); err != nil {
			m.report(fmt.Errorf("failed to store cache entry: %w", err))
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (m *Memoizer) lookup(ctx context.Context, key string, ttl time.Duration, decode Decoder) (interface{}, bool) {
	entry, err := m.store.Get(ctx, key, decode)
	if err != nil {
		m.report(fmt.Errorf("failed to read cache entry: %w", err))
		return nil, false
	}
	if entry == nil || m.now().Sub(entry.CreatedAt) >= ttl {
		return nil, false
	}
	m.hits.Add(1)
	return entry.Value, true
}

func (m *Memoizer) report(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

func decodeAs[T any](raw bson.Raw) (interface{}, error) {
	var holder struct {
		V T `bson:"v"`
	}
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached value: %w", err)
	}
	// Nested documents come back as maps, matching what the store handles return.
	dec.DefaultDocumentM()
	if err := dec.Decode(&holder); err != nil {
		return nil, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return holder.V, nil
}
