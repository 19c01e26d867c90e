package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/client"
	"github.com/gin-gonic/gin"
)

type ClientsStore interface {
	Create(ctx context.Context, req client.CreateClientRequest) (client.Client, error)
	GetByID(ctx context.Context, id string) (client.Client, error)
	List(ctx context.Context, filter client.ListFilter) ([]client.Client, int, error)
	Update(ctx context.Context, id string, req client.UpdateClientRequest) (client.Client, error)
	Delete(ctx context.Context, id string) error
}

type ClientsHandler struct {
	clients ClientsStore
}

func NewClientsHandler(clients ClientsStore) *ClientsHandler {
	return &ClientsHandler{clients: clients}
}

func (h *ClientsHandler) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)

	filter := client.ListFilter{Page: page, Limit: limit}

	if v := ctx.Query("search"); v != "" {
		filter.Search = &v
	}
	if v := ctx.Query("isActive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondBadRequest(ctx, "VALIDATION_ERROR", "isActive must be a boolean", nil)
			return
		}
		filter.IsActive = &b
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.clients.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list clients")
		return
	}

	RespondPage(ctx, items, page, limit, total)
}

func (h *ClientsHandler) Get(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.clients.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			RespondNotFound(ctx, "CLIENT_NOT_FOUND", "Client not found")
			return
		}
		RespondInternal(ctx, "Could not fetch client")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ClientsHandler) Create(ctx *gin.Context) {
	var req client.CreateClientRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.clients.Create(cctx, req)
	if err != nil {
		if errors.Is(err, client.ErrDocumentTaken) {
			RespondConflict(ctx, "DUPLICATE_ENTRY", "Client document is already registered.")
			return
		}
		RespondInternal(ctx, "Could not create client")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *ClientsHandler) Update(ctx *gin.Context) {
	var req client.UpdateClientRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.clients.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			RespondNotFound(ctx, "CLIENT_NOT_FOUND", "Client not found")
		case errors.Is(err, client.ErrDocumentTaken):
			RespondConflict(ctx, "DUPLICATE_ENTRY", "Client document is already registered.")
		default:
			RespondInternal(ctx, "Could not update client")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *ClientsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.clients.Delete(cctx, ctx.Param("id")); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			RespondNotFound(ctx, "CLIENT_NOT_FOUND", "Client not found")
			return
		}
		RespondInternal(ctx, "Could not delete client")
		return
	}

	ctx.Status(http.StatusNoContent)
}
