package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	pingDB    func() error
	pingCache func() error
}

func NewHealthHandler(pingDB, pingCache func() error) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, pingCache: pingCache}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz fails when postgres is unreachable. Redis is reported but not
// blocking; the stats cache degrades to direct queries.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.pingDB != nil {
		if err := h.pingDB(); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"db":     "down",
			})
			return
		}
	}

	cache := "ok"
	if h.pingCache != nil {
		if err := h.pingCache(); err != nil {
			cache = "down"
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"cache":  cache,
	})
}
