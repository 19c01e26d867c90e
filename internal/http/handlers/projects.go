package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/domain/project"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProjectsStore interface {
	Create(ctx context.Context, req project.CreateProjectRequest) (project.Project, error)
	GetByID(ctx context.Context, id string) (project.Project, error)
	List(ctx context.Context, filter project.ListFilter) ([]project.Project, int, error)
	Update(ctx context.Context, id string, req project.UpdateProjectRequest) (project.Project, error)
	Delete(ctx context.Context, id string) error
}

type ProjectsHandler struct {
	projects ProjectsStore
	activity ActivityRecorder
	log      *slog.Logger
}

func NewProjectsHandler(projects ProjectsStore, rec ActivityRecorder, log *slog.Logger) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, activity: rec, log: log}
}

func (h *ProjectsHandler) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)

	filter := project.ListFilter{Page: page, Limit: limit}

	if v := ctx.Query("search"); v != "" {
		filter.Search = &v
	}
	if v := ctx.Query("status"); v != "" {
		s := project.Status(v)
		if !s.IsValid() {
			RespondBadRequest(ctx, "VALIDATION_ERROR", "Unknown status filter", nil)
			return
		}
		filter.Status = &s
	}
	if v := ctx.Query("clientId"); v != "" {
		filter.ClientID = &v
	}
	if v := ctx.Query("managerId"); v != "" {
		filter.ManagerID = &v
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.projects.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list projects")
		return
	}

	RespondPage(ctx, items, page, limit, total)
}

func (h *ProjectsHandler) Get(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.projects.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "PROJECT_NOT_FOUND", "Project not found")
			return
		}
		RespondInternal(ctx, "Could not fetch project")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProjectsHandler) Create(ctx *gin.Context) {
	var req project.CreateProjectRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.projects.Create(cctx, req)
	if err != nil {
		if errors.Is(err, project.ErrCodeTaken) {
			RespondConflict(ctx, "DUPLICATE_ENTRY", "Project code is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create project")
		return
	}

	h.recordActivity(activity.ActionCreate, created, ctx)

	ctx.JSON(http.StatusCreated, created)
}

func (h *ProjectsHandler) Update(ctx *gin.Context) {
	var req project.UpdateProjectRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.projects.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrNotFound):
			RespondNotFound(ctx, "PROJECT_NOT_FOUND", "Project not found")
		case errors.Is(err, project.ErrCodeTaken):
			RespondConflict(ctx, "DUPLICATE_ENTRY", "Project code is already in use.")
		default:
			RespondInternal(ctx, "Could not update project")
		}
		return
	}

	h.recordActivity(activity.ActionUpdate, updated, ctx)

	ctx.JSON(http.StatusOK, updated)
}

func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.projects.Delete(cctx, ctx.Param("id")); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "PROJECT_NOT_FOUND", "Project not found")
			return
		}
		RespondInternal(ctx, "Could not delete project")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProjectsHandler) recordActivity(action string, p project.Project, ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := h.activity.Record(cctx, activity.Entry{
		Action:    action,
		Entity:    activity.EntityProject,
		EntityID:  p.ID,
		UserID:    callerID,
		ProjectID: &p.ID,
	})
	if err != nil {
		h.log.Warn("record activity", "entity_id", p.ID, "error", err)
	}
}
