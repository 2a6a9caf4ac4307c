// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Connection ConnectionSettings
	DocDB      DocDBConfig
	Cache      CacheConfig
	Vault      VaultConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host         string
	Port         int
	GinMode      string
	AllowOrigins []string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConnectionSettings names the connection and carries the explicit overrides
// that take precedence over the secrets file and the vault.
type ConnectionSettings struct {
	Name        string
	SecretsFile string
	Overrides   Overrides
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type string
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type       string
	Host       string
	Port       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
	QueryTTL   time.Duration
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type          string
	Files         []string
	EncryptionKey string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	options, err := parseOptions(getEnv("MONGODB_OPTIONS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_OPTIONS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			GinMode:      getEnv("GIN_MODE", "debug"),
			AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "")),
		},
		Connection: ConnectionSettings{
			Name:        getEnv("CONNECTION_NAME", "mongodb"),
			SecretsFile: getEnv("SECRETS_FILE", ".streamlit/secrets.toml"),
			Overrides: Overrides{
				ConnectionString: getEnv("MONGODB_URI", ""),
				DatabaseName:     getEnv("MONGODB_DATABASE", ""),
				CollectionName:   getEnv("MONGODB_COLLECTION", ""),
				ExtraOptions:     options,
			},
		},
		DocDB: DocDBConfig{
			Type: getEnv("DOCDB_TYPE", "mongodb"),
		},
		Cache: CacheConfig{
			Type:       getEnv("CACHE_TYPE", "memory"),
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			Prefix:     getEnv("CACHE_PREFIX", "docdb"),
			DefaultTTL: time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 1000)) * time.Second,
			QueryTTL:   time.Duration(getEnvAsInt("QUERY_TTL_SECONDS", 3600)) * time.Second,
		},
		Vault: VaultConfig{
			Type:          getEnv("VAULT_TYPE", "dotenv"),
			Files:         splitList(getEnv("VAULT_DOTENV_FILES", "")),
			EncryptionKey: getEnv("SECRETS_ENCRYPTION_KEY", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseOptions reads "key=value,key=value" pairs.
func parseOptions(value string) (map[string]string, error) {
	parts := splitList(value)
	if len(parts) == 0 {
		return nil, nil
	}

	options := make(map[string]string, len(parts))
	for _, part := range parts {
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", part)
		}
		options[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return options, nil
}
