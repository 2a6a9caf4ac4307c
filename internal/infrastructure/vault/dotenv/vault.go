// Package dotenv provides a dotenv-based vault implementation for development.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/unifiedui/docdb-connection/internal/core/vault"
)

// URIScheme prefixes keys served by this vault.
const URIScheme = "dotenv://"

// Vault implements vault.Vault over environment variables and dotenv files.
// Environment variables take precedence over file values.
type Vault struct {
	values map[string]string
}

// NewVault creates a vault. Files are read without modifying the process
// environment; missing files are an error.
func NewVault(files ...string) (*Vault, error) {
	values := make(map[string]string)
	if len(files) > 0 {
		read, err := godotenv.Read(files...)
		if err != nil {
			return nil, fmt.Errorf("failed to read dotenv files: %w", err)
		}
		values = read
	}
	return &Vault{values: values}, nil
}

// URI returns the vault URI for a key.
func URI(key string) string {
	return URIScheme + key
}

// GetSecret retrieves a secret from the environment or the loaded files.
func (v *Vault) GetSecret(ctx context.Context, uri string) (string, error) {
	key := strings.TrimPrefix(uri, URIScheme)

	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value, nil
	}
	if value, ok := v.values[key]; ok && value != "" {
		return value, nil
	}

	return "", fmt.Errorf("%w: %s", vault.ErrSecretNotFound, key)
}

// Ping always succeeds.
func (v *Vault) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (v *Vault) Close() error {
	return nil
}
