package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dcarvalho/projectdesk/internal/jobs"
	"github.com/dcarvalho/projectdesk/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

type AdminJobsStore interface {
	List(ctx context.Context, status *string, page, limit int) ([]jobs.Job, int, error)
	GetByID(ctx context.Context, id string) (jobs.Job, error)
	Retry(ctx context.Context, id string) error
	RetryManyFailed(ctx context.Context, limit int) (int64, error)
}

type AdminJobsHandler struct {
	repo AdminJobsStore
}

func NewAdminJobsHandler(repo AdminJobsStore) *AdminJobsHandler {
	return &AdminJobsHandler{repo: repo}
}

// GET /admin/jobs?status=failed&page=1&limit=50
func (h *AdminJobsHandler) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)

	var statusPtr *string
	if s := ctx.Query("status"); s != "" {
		statusPtr = &s
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, statusPtr, page, limit)
	if err != nil {
		RespondInternal(ctx, "Could not list jobs")
		return
	}

	RespondPage(ctx, items, page, limit, total)
}

// GET /admin/jobs/:id
func (h *AdminJobsHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	j, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			RespondNotFound(ctx, "NOT_FOUND", "Job not found")
			return
		}
		RespondInternal(ctx, "Could not fetch job")
		return
	}

	ctx.JSON(http.StatusOK, j)
}

// POST /admin/jobs/:id/retry
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.repo.Retry(cctx, id); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			RespondNotFound(ctx, "NOT_FOUND", "Job not found")
			return
		}
		if errors.Is(err, postgres.ErrJobNotFailed) {
			RespondConflict(ctx, "JOB_NOT_FAILED", "Only failed jobs can be retried")
			return
		}
		RespondInternal(ctx, "Could not retry job")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"jobId":  id,
		"status": "pending",
	})
}

// POST /admin/jobs/reprocess-dead?limit=50
func (h *AdminJobsHandler) ReprocessDead(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 50)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	n, err := h.repo.RetryManyFailed(cctx, limit)
	if err != nil {
		RespondInternal(ctx, "Could not reprocess dead jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"requeued": n})
}
