package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dcarvalho/projectdesk/internal/config"
	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/domain/task"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/dcarvalho/projectdesk/internal/jobs"
	"github.com/gin-gonic/gin"
)

type TasksStore interface {
	Create(ctx context.Context, req task.CreateTaskRequest, creatorID string) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	List(ctx context.Context, filter task.ListFilter) ([]task.Task, int, error)
	ListMine(ctx context.Context, assigneeID string) ([]task.Task, error)
	Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
	UpdateStatus(ctx context.Context, id string, next task.Status) (task.Task, error)
	Reorder(ctx context.Context, items []task.ReorderItem) error
	Delete(ctx context.Context, id string) error
	CreateComment(ctx context.Context, taskID, authorID, content string) (task.Comment, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry) error
}

type JobEnqueuer interface {
	Create(ctx context.Context, j jobs.Job) error
}

type TasksHandler struct {
	tasks    TasksStore
	activity ActivityRecorder
	queue    JobEnqueuer
	cfg      config.Config
	log      *slog.Logger
}

func NewTasksHandler(tasks TasksStore, rec ActivityRecorder, queue JobEnqueuer, cfg config.Config, log *slog.Logger) *TasksHandler {
	return &TasksHandler{tasks: tasks, activity: rec, queue: queue, cfg: cfg, log: log}
}

type UpdateStatusRequest struct {
	Status task.Status `json:"status" binding:"required,oneof=TODO IN_PROGRESS REVIEW DONE BLOCKED"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

func (h *TasksHandler) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)

	filter := task.ListFilter{Page: page, Limit: limit}

	if v := ctx.Query("projectId"); v != "" {
		filter.ProjectID = &v
	}
	if v := ctx.Query("status"); v != "" {
		s := task.Status(v)
		if !s.IsValid() {
			RespondBadRequest(ctx, "VALIDATION_ERROR", "Unknown status filter", nil)
			return
		}
		filter.Status = &s
	}
	if v := ctx.Query("priority"); v != "" {
		p := task.Priority(v)
		filter.Priority = &p
	}
	if v := ctx.Query("assigneeId"); v != "" {
		filter.AssigneeID = &v
	}
	if v := ctx.Query("search"); v != "" {
		filter.Search = &v
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.tasks.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	RespondPage(ctx, items, page, limit, total)
}

// MyTasks returns the caller's open tasks, urgent first.
func (h *TasksHandler) MyTasks(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.tasks.ListMine(cctx, userID)
	if err != nil {
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.tasks.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not fetch task")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if req.ParentID != nil && h.cfg.EnforceParentProject {
		parent, err := h.tasks.GetByID(cctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, task.ErrNotFound) {
				RespondNotFound(ctx, "TASK_NOT_FOUND", "Parent task not found")
				return
			}
			RespondInternal(ctx, "Could not create task")
			return
		}
		if parent.ProjectID != req.ProjectID {
			RespondBadRequest(ctx, "VALIDATION_ERROR", "Parent task belongs to a different project", nil)
			return
		}
	}

	created, err := h.tasks.Create(cctx, req, callerID)
	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	h.recordActivity(activity.ActionCreate, created, callerID, nil)

	if created.AssigneeID != nil && *created.AssigneeID != callerID {
		h.enqueueAssigned(created, callerID)
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *TasksHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req task.UpdateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	before, err := h.tasks.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not update task")
		return
	}

	updated, err := h.tasks.Update(cctx, id, req)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not update task")
		return
	}

	h.recordActivity(activity.ActionUpdate, updated, callerID, nil)
	h.notifyTransitions(before, updated, callerID)

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	var req UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	before, err := h.tasks.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not update task")
		return
	}

	updated, err := h.tasks.UpdateStatus(cctx, id, req.Status)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not update task")
		return
	}

	h.recordActivity(activity.ActionUpdate, updated, callerID, map[string]any{
		"from": before.Status,
		"to":   updated.Status,
	})
	h.notifyTransitions(before, updated, callerID)

	ctx.JSON(http.StatusOK, updated)
}

// Reorder applies the whole batch or none of it.
func (h *TasksHandler) Reorder(ctx *gin.Context) {
	var req task.ReorderRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.tasks.Reorder(cctx, req.Items()); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "One of the tasks does not exist; nothing was reordered")
			return
		}
		RespondInternal(ctx, "Could not reorder tasks")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Tasks reordered"})
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	before, err := h.tasks.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not delete task")
		return
	}

	if err := h.tasks.Delete(cctx, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not delete task")
		return
	}

	h.recordActivity(activity.ActionDelete, before, callerID, nil)

	ctx.Status(http.StatusNoContent)
}

func (h *TasksHandler) CreateComment(ctx *gin.Context) {
	id := ctx.Param("id")

	var req CreateCommentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	comment, err := h.tasks.CreateComment(cctx, id, callerID, req.Content)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "TASK_NOT_FOUND", "Task not found")
			return
		}
		RespondInternal(ctx, "Could not create comment")
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

// notifyTransitions enqueues notification jobs for the interesting edges:
// a new assignee (other than the actor) and a completion someone else cares
// about.
func (h *TasksHandler) notifyTransitions(before, after task.Task, actorID string) {
	assigneeChanged := after.AssigneeID != nil &&
		(before.AssigneeID == nil || *before.AssigneeID != *after.AssigneeID)

	if assigneeChanged && *after.AssigneeID != actorID {
		h.enqueueAssigned(after, actorID)
	}

	if before.Status != task.StatusDone && after.Status == task.StatusDone && after.CreatorID != actorID {
		h.enqueueCompleted(after, actorID)
	}
}

func (h *TasksHandler) enqueueAssigned(t task.Task, actorID string) {
	payload, err := jobs.EncodePayload(jobs.JobNotifyTaskAssigned, jobs.TaskAssignedPayload{
		TaskID:     t.ID,
		TaskTitle:  t.Title,
		ProjectID:  t.ProjectID,
		AssigneeID: *t.AssigneeID,
		ActorID:    actorID,
	})
	if err != nil {
		h.log.Error("encode assigned payload", "task_id", t.ID, "error", err)
		return
	}
	h.enqueue(jobs.JobNotifyTaskAssigned, payload, t.ID)
}

func (h *TasksHandler) enqueueCompleted(t task.Task, actorID string) {
	payload, err := jobs.EncodePayload(jobs.JobNotifyTaskCompleted, jobs.TaskCompletedPayload{
		TaskID:    t.ID,
		TaskTitle: t.Title,
		ProjectID: t.ProjectID,
		CreatorID: t.CreatorID,
		ActorID:   actorID,
	})
	if err != nil {
		h.log.Error("encode completed payload", "task_id", t.ID, "error", err)
		return
	}
	h.enqueue(jobs.JobNotifyTaskCompleted, payload, t.ID)
}

// enqueue is fire and forget: the business write already committed.
func (h *TasksHandler) enqueue(t jobs.JobType, payload []byte, taskID string) {
	j, err := jobs.NewJob(t, payload, time.Time{})
	if err != nil {
		h.log.Error("build job", "type", t, "task_id", taskID, "error", err)
		return
	}

	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.queue.Create(cctx, j); err != nil {
		h.log.Error("enqueue job", "type", t, "task_id", taskID, "error", err)
	}
}

// recordActivity is fire and forget as well.
func (h *TasksHandler) recordActivity(action string, t task.Task, actorID string, details map[string]any) {
	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	entry := activity.Entry{
		Action:    action,
		Entity:    activity.EntityTask,
		EntityID:  t.ID,
		UserID:    actorID,
		ProjectID: &t.ProjectID,
		Details:   details,
	}

	if err := h.activity.Record(cctx, entry); err != nil {
		h.log.Warn("record activity", "entity_id", t.ID, "error", err)
	}
}
