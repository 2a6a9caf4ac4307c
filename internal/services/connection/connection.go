// Package connection provides the cached access façade over a document store handle.
//
// Read operations are memoized per (operation, arguments) for a TTL chosen per
// call; write operations always reach the store and return outcome records.
// After Close every operation fails with a closed-connection error.
package connection

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
	"github.com/unifiedui/docdb-connection/internal/pkg/memo"
)

const (
	// DefaultTTL applies to reads that do not pass WithTTL.
	DefaultTTL = 1000 * time.Second

	// DefaultQueryTTL applies to Query calls that do not pass WithTTL.
	DefaultQueryTTL = time.Hour
)

// Config holds the dependencies of a Connection.
type Config struct {
	Client docdb.Client
	// Memoizer defaults to a private in-memory memoizer.
	Memoizer *memo.Memoizer
	// Namespace scopes cache keys; defaults to the collection name.
	Namespace  string
	DefaultTTL time.Duration
	QueryTTL   time.Duration
	Logger     *zerolog.Logger
}

// Connection is the cached access façade.
type Connection struct {
	client     docdb.Client
	collection docdb.Collection
	memo       *memo.Memoizer
	namespace  string
	defaultTTL time.Duration
	queryTTL   time.Duration
	logger     zerolog.Logger
	closed     atomic.Bool
}

// New creates a Connection over an open client.
func New(cfg *Config) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("docdb client is required")
	}

	collection := cfg.Client.Collection()

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	memoizer := cfg.Memoizer
	if memoizer == nil {
		memoizer = memo.New(memo.NewMemoryStore())
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = collection.Name()
	}

	defaultTTL := cfg.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = DefaultTTL
	}
	queryTTL := cfg.QueryTTL
	if queryTTL == 0 {
		queryTTL = DefaultQueryTTL
	}

	return &Connection{
		client:     cfg.Client,
		collection: collection,
		memo:       memoizer,
		namespace:  namespace,
		defaultTTL: defaultTTL,
		queryTTL:   queryTTL,
		logger:     logger.With().Str("collection", collection.Name()).Logger(),
	}, nil
}

// ReadOption configures a single read.
type ReadOption func(*readOptions)

type readOptions struct {
	ttl    time.Duration
	ttlSet bool
}

// WithTTL sets how long a cached result stays valid. Zero always reads from the store.
func WithTTL(ttl time.Duration) ReadOption {
	return func(o *readOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}

func resolveTTL(fallback time.Duration, opts []ReadOption) time.Duration {
	o := readOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.ttlSet {
		return fallback
	}
	return o.ttl
}

// Stats returns the cache counters of the underlying memoizer.
func (c *Connection) Stats() memo.Stats {
	return c.memo.Stats()
}

func (c *Connection) checkOpen(operation string) error {
	if c.closed.Load() {
		return errors.NewClosedConnectionError(operation)
	}
	return nil
}

func cached[T any](ctx context.Context, c *Connection, operation string, ttl time.Duration, args []interface{}, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := c.checkOpen(operation); err != nil {
		return zero, err
	}

	var key string
	if ttl > 0 {
		var err error
		key, err = memo.Key(c.namespace, operation, args...)
		if err != nil {
			return zero, errors.NewInvalidArgumentError("arguments cannot be used as a cache key", err.Error())
		}
	}

	start := time.Now()
	result, err := memo.Do(ctx, c.memo, key, ttl, fn)
	c.logger.Debug().
		Str("operation", operation).
		Dur("ttl", ttl).
		Dur("latency", time.Since(start)).
		Err(err).
		Msg("read")
	return result, err
}

// FindAll returns every document in store order.
func (c *Connection) FindAll(ctx context.Context, opts ...ReadOption) ([]docdb.Document, error) {
	return cached(ctx, c, "find_all", resolveTTL(c.defaultTTL, opts), nil,
		func(ctx context.Context) ([]docdb.Document, error) {
			return c.collection.Find(ctx, nil, nil)
		})
}

// Find returns the documents matching filter. A nil filter matches everything.
// findOpts may be nil.
func (c *Connection) Find(ctx context.Context, filter docdb.Filter, findOpts *docdb.FindOptions, opts ...ReadOption) ([]docdb.Document, error) {
	if findOpts != nil && (findOpts.Limit < 0 || findOpts.Skip < 0) {
		return nil, errors.NewInvalidArgumentError("limit and skip must not be negative",
			fmt.Sprintf("limit=%d skip=%d", findOpts.Limit, findOpts.Skip))
	}

	return cached(ctx, c, "find", resolveTTL(c.defaultTTL, opts), []interface{}{filter, findOpts},
		func(ctx context.Context) ([]docdb.Document, error) {
			return c.collection.Find(ctx, filter, findOpts)
		})
}

// Query runs a filter-only find with the longer query TTL.
func (c *Connection) Query(ctx context.Context, filter docdb.Filter, opts ...ReadOption) ([]docdb.Document, error) {
	return cached(ctx, c, "query", resolveTTL(c.queryTTL, opts), []interface{}{filter},
		func(ctx context.Context) ([]docdb.Document, error) {
			return c.collection.Find(ctx, filter, nil)
		})
}

// FindOne returns the first matching document. The boolean is false when
// nothing matches; absence is not an error. FindOne is never cached.
func (c *Connection) FindOne(ctx context.Context, filter docdb.Filter, projection docdb.Document) (docdb.Document, bool, error) {
	if err := c.checkOpen("find_one"); err != nil {
		return nil, false, err
	}

	document, err := c.collection.FindOne(ctx, filter, projection)
	if err != nil {
		return nil, false, err
	}
	return document, document != nil, nil
}

// Count returns the number of documents matching filter.
func (c *Connection) Count(ctx context.Context, filter docdb.Filter, opts ...ReadOption) (int64, error) {
	return cached(ctx, c, "count", resolveTTL(c.defaultTTL, opts), []interface{}{filter},
		func(ctx context.Context) (int64, error) {
			return c.collection.CountDocuments(ctx, filter)
		})
}

// DistinctValues returns the distinct values of field among documents matching filter.
func (c *Connection) DistinctValues(ctx context.Context, field string, filter docdb.Filter, opts ...ReadOption) ([]interface{}, error) {
	if field == "" {
		return nil, errors.NewInvalidArgumentError("field is required", "distinct")
	}

	return cached(ctx, c, "distinct", resolveTTL(c.defaultTTL, opts), []interface{}{field, filter},
		func(ctx context.Context) ([]interface{}, error) {
			return c.collection.Distinct(ctx, field, filter)
		})
}

// Paginate returns page pageNumber (1-based) of itemsPerPage documents in store order.
func (c *Connection) Paginate(ctx context.Context, pageNumber, itemsPerPage int64, opts ...ReadOption) ([]docdb.Document, error) {
	if pageNumber < 1 || itemsPerPage < 1 {
		return nil, errors.NewInvalidArgumentError("page number and items per page must be at least 1",
			fmt.Sprintf("page=%d per_page=%d", pageNumber, itemsPerPage))
	}

	findOpts := &docdb.FindOptions{
		Skip:  (pageNumber - 1) * itemsPerPage,
		Limit: itemsPerPage,
	}
	return cached(ctx, c, "paginate", resolveTTL(c.defaultTTL, opts), []interface{}{pageNumber, itemsPerPage},
		func(ctx context.Context) ([]docdb.Document, error) {
			return c.collection.Find(ctx, nil, findOpts)
		})
}

// InsertOne inserts a document.
func (c *Connection) InsertOne(ctx context.Context, document docdb.Document) (*docdb.InsertOneResult, error) {
	if err := c.checkOpen("insert_one"); err != nil {
		return nil, err
	}
	if document == nil {
		return nil, errors.NewInvalidArgumentError("document is required", "insert_one")
	}
	return c.collection.InsertOne(ctx, document)
}

// InsertMany inserts a non-empty batch of documents.
func (c *Connection) InsertMany(ctx context.Context, documents []docdb.Document) (*docdb.InsertManyResult, error) {
	if err := c.checkOpen("insert_many"); err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, errors.NewInvalidArgumentError("documents must not be empty", "insert_many")
	}
	return c.collection.InsertMany(ctx, documents)
}

// UpdateOne sets the fields of update on the first document matching filter.
func (c *Connection) UpdateOne(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	if err := c.checkOpen("update_one"); err != nil {
		return nil, err
	}
	if len(update) == 0 {
		return nil, errors.NewInvalidArgumentError("update must set at least one field", "update_one")
	}
	return c.collection.UpdateOne(ctx, filter, update)
}

// UpdateMany sets the fields of update on every document matching filter.
func (c *Connection) UpdateMany(ctx context.Context, filter docdb.Filter, update docdb.Document) (*docdb.UpdateResult, error) {
	if err := c.checkOpen("update_many"); err != nil {
		return nil, err
	}
	if len(update) == 0 {
		return nil, errors.NewInvalidArgumentError("update must set at least one field", "update_many")
	}
	return c.collection.UpdateMany(ctx, filter, update)
}

// DeleteOne deletes the first document matching filter.
func (c *Connection) DeleteOne(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	if err := c.checkOpen("delete_one"); err != nil {
		return nil, err
	}
	return c.collection.DeleteOne(ctx, filter)
}

// DeleteMany deletes every document matching filter.
func (c *Connection) DeleteMany(ctx context.Context, filter docdb.Filter) (*docdb.DeleteResult, error) {
	if err := c.checkOpen("delete_many"); err != nil {
		return nil, err
	}
	return c.collection.DeleteMany(ctx, filter)
}

// Ping checks the underlying handle.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.checkOpen("ping"); err != nil {
		return err
	}
	return c.client.Ping(ctx)
}

// Close releases the handle. Only the first call has an effect.
func (c *Connection) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Info().Msg("closing connection")
	return c.client.Close(ctx)
}
