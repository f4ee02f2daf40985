package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks      map[string]Pinger
	connections func() int
}

// NewHealthHandler builds the probe. connections reports live player
// sockets and may be nil.
func NewHealthHandler(checks map[string]Pinger, connections func() int) *HealthHandler {
	return &HealthHandler{checks: checks, connections: connections}
}

// Live answers GET /healthz. It is mounted outside /api and left out of the
// OpenAPI document.
func (h *HealthHandler) Live(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.connections != nil {
		body["connections"] = h.connections()
	}
	c.JSON(http.StatusOK, body)
}

// Ready answers GET /readyz with 200 when every backing store pings and 503
// otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
