// Package main is the entry point for the DocDB Connection service.
// @title DocDB Connection API
// @version 1.0
// @description Cached access façade over one document collection.

// @host localhost:8080
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unifiedui/docdb-connection/docs"
	"github.com/unifiedui/docdb-connection/internal/api/handlers"
	"github.com/unifiedui/docdb-connection/internal/api/middleware"
	"github.com/unifiedui/docdb-connection/internal/api/routes"
	"github.com/unifiedui/docdb-connection/internal/config"
	"github.com/unifiedui/docdb-connection/internal/core/cache"
	"github.com/unifiedui/docdb-connection/internal/core/docdb"
	"github.com/unifiedui/docdb-connection/internal/core/vault"
	rediscache "github.com/unifiedui/docdb-connection/internal/infrastructure/cache/redis"
	"github.com/unifiedui/docdb-connection/internal/infrastructure/docdb/memory"
	"github.com/unifiedui/docdb-connection/internal/infrastructure/docdb/mongodb"
	dotenvvault "github.com/unifiedui/docdb-connection/internal/infrastructure/vault/dotenv"
	"github.com/unifiedui/docdb-connection/internal/pkg/encryption"
	"github.com/unifiedui/docdb-connection/internal/pkg/memo"
	"github.com/unifiedui/docdb-connection/internal/services/connection"
)

// defaultMemoryCollection names the in-memory collection when none is configured.
const defaultMemoryCollection = "documents"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogger(cfg.Log)

	ctx := context.Background()

	vaultClient, err := createVault(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vault")
	}
	if vaultClient != nil {
		defer vaultClient.Close()
	}

	docDBClient, err := createDocDBClient(ctx, cfg, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document db client")
	}

	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	if cacheClient != nil {
		defer cacheClient.Close()
	}

	memoizer, err := createMemoizer(ctx, cfg, cacheClient, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize memoizer")
	}

	conn, err := connection.New(&connection.Config{
		Client:     docDBClient,
		Memoizer:   memoizer,
		DefaultTTL: cfg.Cache.DefaultTTL,
		QueryTTL:   cfg.Cache.QueryTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize connection")
	}

	gin.SetMode(cfg.Server.GinMode)
	router := setupRouter(cfg, conn, cacheClient)

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", cfg.Server.Address()).
			Str("connection", cfg.Connection.Name).
			Str("docdb", cfg.DocDB.Type).
			Str("cache", cfg.Cache.Type).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := conn.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close connection")
	}

	log.Info().Msg("server exited")
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// createVault creates a vault based on the configuration. It returns nil when
// the vault layer is disabled.
func createVault(cfg config.VaultConfig) (vault.Vault, error) {
	switch vault.Type(cfg.Type) {
	case vault.TypeDotEnv:
		return dotenvvault.NewVault(cfg.Files...)
	case vault.TypeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported vault type: %s", cfg.Type)
	}
}

// createDocDBClient resolves the connection parameters and opens the store handle.
func createDocDBClient(ctx context.Context, cfg *config.Config, vaultClient vault.Vault) (docdb.Client, error) {
	switch docdb.Type(cfg.DocDB.Type) {
	case docdb.TypeMongoDB, docdb.TypeCosmosDB:
		// CosmosDB speaks the MongoDB wire protocol, so the same client serves both.
		secrets, err := config.LoadSecrets(cfg.Connection.SecretsFile)
		if err != nil {
			return nil, err
		}

		resolved, err := config.NewResolver(cfg.Connection.Name, secrets, vaultClient).
			Resolve(ctx, cfg.Connection.Overrides)
		if err != nil {
			return nil, err
		}

		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:            resolved.ConnectionString,
			DatabaseName:   resolved.DatabaseName,
			CollectionName: resolved.CollectionName,
			Options:        resolved.ExtraOptions,
		})
	case docdb.TypeMemory:
		name := cfg.Connection.Overrides.CollectionName
		if name == "" {
			name = defaultMemoryCollection
		}
		return memory.NewClient(ctx, &memory.ClientConfig{CollectionName: name})
	default:
		return nil, fmt.Errorf("unsupported docdb type: %s", cfg.DocDB.Type)
	}
}

// createCacheClient creates the shared cache client. It returns nil for the
// in-process memory cache.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	switch cache.Type(cfg.Type) {
	case cache.TypeMemory:
		return nil, nil
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.DefaultTTL,
		})
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// createMemoizer picks the memo store. Store failures are logged and treated as misses.
func createMemoizer(ctx context.Context, cfg *config.Config, cacheClient cache.Client, vaultClient vault.Vault) (*memo.Memoizer, error) {
	onError := memo.WithErrorHandler(func(err error) {
		log.Warn().Err(err).Msg("cache store error")
	})

	if cacheClient == nil {
		return memo.New(memo.NewMemoryStore(), onError), nil
	}

	encryptor, err := createEncryptor(ctx, cfg.Vault, vaultClient)
	if err != nil {
		return nil, err
	}

	store, err := memo.NewCacheStore(cacheClient, encryptor, cfg.Cache.Prefix)
	if err != nil {
		return nil, err
	}
	return memo.New(store, onError), nil
}

// createEncryptor creates the encryptor that seals cached results.
func createEncryptor(ctx context.Context, cfg config.VaultConfig, vaultClient vault.Vault) (encryption.Encryptor, error) {
	encryptionKey := cfg.EncryptionKey
	if encryptionKey == "" && vaultClient != nil {
		key, err := vaultClient.GetSecret(ctx, dotenvvault.URI("SECRETS_ENCRYPTION_KEY"))
		if err == nil && key != "" {
			encryptionKey = key
		}
	}

	if encryptionKey == "" {
		log.Warn().Msg("SECRETS_ENCRYPTION_KEY not set, cached results are stored unencrypted")
		return encryption.NewNoOpEncryptor(), nil
	}

	return encryption.NewAESEncryptor(encryptionKey)
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, conn *connection.Connection, cacheClient cache.Client) *gin.Engine {
	router := gin.New()

	loggingMw := middleware.NewLoggingMiddleware()
	errorMw := middleware.NewErrorMiddleware()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	}

	routesCfg := &routes.Config{
		HealthHandler:    handlers.NewHealthHandler(conn, cacheClient),
		DocumentsHandler: handlers.NewDocumentsHandler(cfg.Connection.Name, conn),
	}
	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw, corsCfg)

	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
