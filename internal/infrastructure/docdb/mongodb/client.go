// Package mongodb provides MongoDB client implementation.
package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/domain/errors"
)

// Client implements the docdb.Client interface for MongoDB.
type Client struct {
	client     *mongo.Client
	collection *Collection
	closed     atomic.Bool
}

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI            string
	DatabaseName   string
	CollectionName string
	// Options are merged into the connection string query, e.g. appName or maxPoolSize.
	// Parameters already present in URI win.
	Options map[string]string
}

// NewClient connects to MongoDB and binds the configured collection.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("connection_string", "config cannot be nil")
	}
	if config.URI == "" {
		return nil, errors.NewConfigurationError("connection_string", "mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, errors.NewConfigurationError("database_name", "database name is required")
	}
	if config.CollectionName == "" {
		return nil, errors.NewConfigurationError("collection_name", "collection name is required")
	}

	uri, err := mergeURIOptions(config.URI, config.Options)
	if err != nil {
		return nil, errors.NewConfigurationError("connection_string", err.Error())
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.NewConnectionError("failed to connect to mongodb", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.NewConnectionError("failed to ping mongodb", err)
	}

	db := client.Database(config.DatabaseName)

	return &Client{
		client:     client,
		collection: NewCollection(db.Collection(config.CollectionName)),
	}, nil
}

// Collection returns the bound collection.
func (c *Client) Collection() docdb.Collection {
	return c.collection
}

// Ping verifies the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return errors.NewClosedConnectionError("ping")
	}
	if err := c.client.Ping(ctx, nil); err != nil {
		return errors.NewConnectionError("mongodb ping failed", err)
	}
	return nil
}

// Close closes the MongoDB connection. Only the first call disconnects.
func (c *Client) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// mergeURIOptions appends extra options to the query part of a connection string.
// url.Parse is not used because seed lists like "h1:27017,h2:27017" are not valid URL hosts.
func mergeURIOptions(uri string, extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return uri, nil
	}

	base, rawQuery, _ := strings.Cut(uri, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("invalid connection string options: %w", err)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := query[k]; !ok {
			query.Set(k, extra[k])
		}
	}

	// The URI format requires a "/" between the host list and the options.
	if _, rest, ok := strings.Cut(base, "://"); ok && !strings.Contains(rest, "/") {
		base += "/"
	}

	return base + "?" + query.Encode(), nil
}
