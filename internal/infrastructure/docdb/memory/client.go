// Package memory provides a process-local document store for development and tests.
package memory

import (
	"context"
	"sync/atomic"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
)

// ClientConfig holds in-memory store configuration.
type ClientConfig struct {
	CollectionName string
	// Seed documents are inserted in order when the client is created.
	Seed []docdb.Document
}

// Client implements the docdb.Client interface over an in-memory collection.
type Client struct {
	collection *Collection
	closed     *atomic.Bool
}

// NewClient creates a new in-memory client bound to one collection.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil || config.CollectionName == "" {
		return nil, errors.NewConfigurationError("collection_name", "collection name is required")
	}

	closed := &atomic.Bool{}
	collection := newCollection(config.CollectionName, closed)
	if len(config.Seed) > 0 {
		if _, err := collection.InsertMany(ctx, config.Seed); err != nil {
			return nil, err
		}
	}

	return &Client{
		collection: collection,
		closed:     closed,
	}, nil
}

// Collection returns the bound collection.
func (c *Client) Collection() docdb.Collection {
	return c.collection
}

// Ping reports whether the client is still open.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return errors.NewClosedConnectionError("ping")
	}
	return nil
}

// Close marks the client closed. Further calls are no-ops.
func (c *Client) Close(ctx context.Context) error {
	c.closed.Store(true)
	return nil
}
