// Package docdb defines the document database client interface.
package docdb

import (
	"context"
)

// Client is a live connection to a single collection in a document store.
type Client interface {
	// Collection returns the bound collection.
	Collection() Collection

	// Ping verifies the database connection.
	Ping(ctx context.Context) error

	// Close releases the connection. Calling Close more than once is a no-op.
	Close(ctx context.Context) error
}
