package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Readiness interface {
	IsReady() bool
}

type HealthHandler struct {
	pinger Pinger
	ready  Readiness
}

func NewHealthHandler(pinger Pinger, ready Readiness) *HealthHandler {
	return &HealthHandler{pinger: pinger, ready: ready}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "washa-backend",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.pinger == nil || h.pinger.Ping(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not_ready",
			"database": "error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "ok",
	})
}

// DBStatus reports the last known connection state without touching the
// database.
func (h *HealthHandler) DBStatus(c *gin.Context) {
	connected := h.ready != nil && h.ready.IsReady()
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}
