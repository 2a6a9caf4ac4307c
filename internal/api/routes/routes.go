// Package routes defines the HTTP routes for the document connection service.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/unifiedui/docdb-connection/internal/api/handlers"
	"github.com/unifiedui/docdb-connection/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler    *handlers.HealthHandler
	DocumentsHandler *handlers.DocumentsHandler
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		conn := v1.Group("/connections/:connection")
		conn.Use(cfg.DocumentsHandler.RequireConnection())
		{
			documents := conn.Group("/documents")
			{
				// Cached reads
				documents.GET("", cfg.DocumentsHandler.FindDocuments)
				documents.GET("/all", cfg.DocumentsHandler.FindAllDocuments)
				documents.GET("/page/:page", cfg.DocumentsHandler.PaginateDocuments)
				documents.GET("/count", cfg.DocumentsHandler.CountDocuments)
				documents.GET("/distinct/:field", cfg.DocumentsHandler.DistinctValues)

				documents.GET("/one", cfg.DocumentsHandler.FindOneDocument)

				// Writes
				documents.POST("", cfg.DocumentsHandler.InsertDocument)
				documents.POST("/batch", cfg.DocumentsHandler.InsertDocuments)
				documents.PATCH("", cfg.DocumentsHandler.UpdateDocuments)
				documents.DELETE("", cfg.DocumentsHandler.DeleteDocuments)
			}

			conn.GET("/cache/stats", cfg.DocumentsHandler.CacheStats)
		}
	}

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware, cors middleware.CORSConfig) {
	r.HandleMethodNotAllowed = true

	r.Use(loggingMw.RequestLogger())
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(middleware.NewCORSMiddleware(cors))

	Setup(r, cfg)
}
