// Package vault defines the secret source used as the last configuration layer.
package vault

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when a vault has no value for a key.
var ErrSecretNotFound = errors.New("secret not found")

// Vault resolves secrets by URI.
type Vault interface {
	// GetSecret retrieves a secret by URI such as "dotenv://MONGODB_URI".
	// It returns an error wrapping ErrSecretNotFound when the secret is absent.
	GetSecret(ctx context.Context, uri string) (string, error)

	// Ping checks if the vault is reachable.
	Ping(ctx context.Context) error

	// Close releases vault resources.
	Close() error
}
