package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/activity"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type NotificationsStore interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]activity.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// NotificationsHandler serves the per-user inbox the worker writes into.
type NotificationsHandler struct {
	store NotificationsStore
}

func NewNotificationsHandler(store NotificationsStore) *NotificationsHandler {
	return &NotificationsHandler{store: store}
}

func (h *NotificationsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	limit := parseIntDefault(ctx.Query("limit"), 20)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.store.ListForUser(cctx, userID, limit)
	if err != nil {
		RespondInternal(ctx, "Could not list notifications")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": items})
}

// MarkRead is idempotent and scoped to the caller; marking someone else's
// notification (or a missing one) is a silent no-op.
func (h *NotificationsHandler) MarkRead(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.MarkRead(cctx, userID, ctx.Param("id")); err != nil {
		RespondInternal(ctx, "Could not update notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
