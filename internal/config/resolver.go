package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unifiedui/docdb-connection/internal/core/vault"
	domainerrors "github.com/unifiedui/docdb-connection/internal/domain/errors"
	"github.com/unifiedui/docdb-connection/internal/infrastructure/vault/dotenv"
)

// Connection parameter keys as they appear in a secrets section.
const (
	KeyConnectionString = "connection_string"
	KeyDatabaseName     = "database_name"
	KeyCollectionName   = "collection_name"

	// keyDatabaseAlias is the older spelling of database_name.
	keyDatabaseAlias = "database"
)

// ConnectionConfig is the fully resolved connection configuration.
type ConnectionConfig struct {
	ConnectionString string
	DatabaseName     string
	CollectionName   string
	ExtraOptions     map[string]string
}

// Overrides are explicit connection arguments. Empty fields fall through to
// the next layer.
type Overrides struct {
	ConnectionString string
	DatabaseName     string
	CollectionName   string
	ExtraOptions     map[string]string
}

// Resolver resolves connection parameters from, in order: explicit overrides,
// the [connections.<name>] secrets section, then the vault.
type Resolver struct {
	name    string
	secrets *Secrets
	vault   vault.Vault
}

// NewResolver creates a resolver for the named connection. secrets and v may be nil.
func NewResolver(name string, secrets *Secrets, v vault.Vault) *Resolver {
	return &Resolver{
		name:    name,
		secrets: secrets,
		vault:   v,
	}
}

// Resolve builds the connection configuration. It never mutates overrides.
func (r *Resolver) Resolve(ctx context.Context, overrides Overrides) (*ConnectionConfig, error) {
	section, _ := r.secrets.Section(r.name)
	if section != nil {
		if _, ok := section[KeyDatabaseName]; !ok {
			if alias, ok := section[keyDatabaseAlias]; ok {
				section[KeyDatabaseName] = alias
			}
		}
	}

	cfg := &ConnectionConfig{ExtraOptions: make(map[string]string)}

	var err error
	if cfg.ConnectionString, err = r.lookup(ctx, KeyConnectionString, overrides.ConnectionString, section); err != nil {
		return nil, err
	}
	if cfg.DatabaseName, err = r.lookup(ctx, KeyDatabaseName, overrides.DatabaseName, section); err != nil {
		return nil, err
	}
	if cfg.CollectionName, err = r.lookup(ctx, KeyCollectionName, overrides.CollectionName, section); err != nil {
		return nil, err
	}

	for k, v := range section {
		switch k {
		case KeyConnectionString, KeyDatabaseName, KeyCollectionName, keyDatabaseAlias:
			continue
		}
		cfg.ExtraOptions[k] = v
	}
	for k, v := range overrides.ExtraOptions {
		cfg.ExtraOptions[k] = v
	}

	return cfg, nil
}

func (r *Resolver) lookup(ctx context.Context, key, explicit string, section map[string]string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if value := section[key]; value != "" {
		return value, nil
	}

	vaultKey := r.VaultKey(key)
	if r.vault != nil {
		value, err := r.vault.GetSecret(ctx, dotenv.URI(vaultKey))
		switch {
		case err == nil && value != "":
			return value, nil
		case err != nil && !errors.Is(err, vault.ErrSecretNotFound):
			return "", fmt.Errorf("failed to read %s from vault: %w", vaultKey, err)
		}
	}

	return "", domainerrors.NewConfigurationError(key, fmt.Sprintf(
		"set it explicitly, in [connections.%s] of the secrets file, or as %s", r.name, vaultKey))
}

// VaultKey returns the vault key for a parameter, e.g. MONGODB_CONNECTION_STRING
// for the "mongodb" connection.
func (r *Resolver) VaultKey(key string) string {
	name := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 'A'
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		}
		return '_'
	}, r.name)
	return name + "_" + strings.ToUpper(key)
}
