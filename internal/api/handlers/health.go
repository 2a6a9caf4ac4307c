package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifiedui/docdb-connection/internal/api/dto"
	"github.com/unifiedui/docdb-connection/internal/core/cache"
	"github.com/unifiedui/docdb-connection/internal/services/connection"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	conn        *connection.Connection
	cacheClient cache.Client
}

// NewHealthHandler creates a new HealthHandler. cacheClient is nil when results
// are memoized in process.
func NewHealthHandler(conn *connection.Connection, cacheClient cache.Client) *HealthHandler {
	return &HealthHandler{
		conn:        conn,
		cacheClient: cacheClient,
	}
}

// Health handles the /health endpoint.
// @Summary Health check
// @Description Reports the status of the document store and the shared cache
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	components := make(map[string]string)
	healthy := true

	if err := h.conn.Ping(ctx); err != nil {
		components["docdb"] = "unhealthy"
		healthy = false
	} else {
		components["docdb"] = "healthy"
	}

	if h.cacheClient != nil {
		if err := h.cacheClient.Ping(ctx); err != nil {
			components["cache"] = "unhealthy"
			healthy = false
		} else {
			components["cache"] = "healthy"
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, dto.HealthResponse{
		Status:     status,
		Components: components,
	})
}

// Ready handles the /ready endpoint.
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service ready"
// @Failure 503 {object} map[string]string "Service not ready"
// @Router /api/v1/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.conn.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "docdb unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// Live handles the /live endpoint.
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service alive"
// @Router /api/v1/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
