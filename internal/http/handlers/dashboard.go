package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

type DashboardStore interface {
	Stats(ctx context.Context) (postgres.DashboardStats, error)
	ProjectsByStatus(ctx context.Context) ([]postgres.StatusCount, error)
}

type ActivityReader interface {
	Recent(ctx context.Context, projectID *string, limit int) ([]activity.Entry, error)
}

// StatsCache is the cache-aside layer for /stats; a nil-safe miss path keeps
// the endpoint alive when redis is down.
type StatsCache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, val any) error
}

type DashboardHandler struct {
	store    DashboardStore
	activity ActivityReader
	cache    StatsCache
	log      *slog.Logger
}

func NewDashboardHandler(store DashboardStore, activity ActivityReader, cache StatsCache, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, activity: activity, cache: cache, log: log}
}

const statsCacheKey = "dashboard:stats"

func (h *DashboardHandler) Stats(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if h.cache != nil {
		var cached postgres.DashboardStats

		hit, err := h.cache.Get(cctx, statsCacheKey, &cached)
		if err != nil {
			h.log.Warn("stats cache read", "error", err)
		}
		if hit {
			ctx.JSON(http.StatusOK, cached)
			return
		}
	}

	stats, err := h.store.Stats(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not compute stats")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(cctx, statsCacheKey, stats); err != nil {
			h.log.Warn("stats cache write", "error", err)
		}
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) Activity(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 20)

	var projectID *string
	if v := ctx.Query("projectId"); v != "" {
		projectID = &v
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.activity.Recent(cctx, projectID, limit)
	if err != nil {
		RespondInternal(ctx, "Could not fetch activity")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *DashboardHandler) ProjectsByStatus(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	counts, err := h.store.ProjectsByStatus(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not group projects")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": counts})
}
