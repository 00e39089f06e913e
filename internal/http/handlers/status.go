package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type StatusHandler struct {
	loans     Counter
	borrowers Counter
	payments  Counter
}

func NewStatusHandler(loans, borrowers, payments Counter) *StatusHandler {
	return &StatusHandler{loans: loans, borrowers: borrowers, payments: payments}
}

func (h *StatusHandler) DataStatus(c *gin.Context) {
	ctx := c.Request.Context()
	stats := gin.H{}
	for name, counter := range map[string]Counter{"loans": h.loans, "borrowers": h.borrowers, "payments": h.payments} {
		n, err := counter.Count(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
			return
		}
		stats[name] = n
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
