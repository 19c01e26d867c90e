package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dcarvalho/projectdesk/internal/domain/user"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/dcarvalho/projectdesk/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error)
	Create(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
	UpdateAdmin(ctx context.Context, id string, req user.AdminUpdateUserRequest) (user.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UsersStore
}

func NewUsersHandler(users UsersStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func pageParams(ctx *gin.Context) (page, limit int) {
	page = parseIntDefault(ctx.Query("page"), 1)
	if page < 1 {
		page = 1
	}

	limit = parseIntDefault(ctx.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return page, limit
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return n
}

func (h *UsersHandler) List(ctx *gin.Context) {
	page, limit := pageParams(ctx)

	filter := user.ListFilter{Page: page, Limit: limit}

	if s := ctx.Query("search"); s != "" {
		filter.Search = &s
	}
	if r := ctx.Query("role"); r != "" {
		role := user.Role(r)
		if !role.IsValid() {
			RespondBadRequest(ctx, "VALIDATION_ERROR", "Unknown role filter", nil)
			return
		}
		filter.Role = &role
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

	users, total, err := h.users.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondPage(ctx, users, page, limit, total)
}

// Get allows admins to read anyone; everyone else only themselves.
func (h *UsersHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	callerID, _ := middlewares.UserIDFromContext(ctx)
	callerRole, _ := middlewares.RoleFromContext(ctx)

	if callerRole != string(user.RoleAdmin) && callerID != id {
		RespondForbidden(ctx, "You may only view your own profile")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "USER_NOT_FOUND", "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, found)
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.users.Create(cctx, req, hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "EMAIL_EXISTS", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Update has two explicit payload shapes: admins may touch identity and
// access fields, everyone else gets the profile subset on their own record.
func (h *UsersHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	callerID, _ := middlewares.UserIDFromContext(ctx)
	callerRole, _ := middlewares.RoleFromContext(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if callerRole == string(user.RoleAdmin) {
		var req user.AdminUpdateUserRequest
		if !BindJSON(ctx, &req) {
			return
		}

		updated, err := h.users.UpdateAdmin(cctx, id, req)
		if err != nil {
			h.respondUpdateErr(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, updated)
		return
	}

	if callerID != id {
		RespondForbidden(ctx, "You may only update your own profile")
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(cctx, id, req)
	if err != nil {
		h.respondUpdateErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *UsersHandler) respondUpdateErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "EMAIL_EXISTS", "Email is already in use.")
	default:
		RespondInternal(ctx, "Could not update user")
	}
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	callerID, _ := middlewares.UserIDFromContext(ctx)
	if callerID == id {
		RespondBadRequest(ctx, "CANNOT_DELETE_SELF", "You cannot delete your own account.", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "USER_NOT_FOUND", "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) ResetPassword(ctx *gin.Context) {
	id := ctx.Param("id")

	var req ResetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.UpdatePassword(cctx, id, hash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "USER_NOT_FOUND", "User not found")
			return
		}
		RespondInternal(ctx, "Could not reset password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset"})
}
