package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/commerce/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks a backing service
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and the state of backing services
type HealthHandler struct {
	checks  map[string]Pinger
	version string
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. Each check is pinged on every request.
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, version: version, timeout: 2 * time.Second}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Services map[string]string `json:"services"`
}

// Health returns 200 when every check passes and 503 otherwise
//
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: h.version, Services: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.FromContext(ctx).Warn("Health check failed", zap.String("service", name), zap.Error(err))
			resp.Services[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "up"
	}
	c.JSON(status, resp)
}
