package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dcarvalho/projectdesk/internal/auth"
	"github.com/dcarvalho/projectdesk/internal/domain/user"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/dcarvalho/projectdesk/internal/security"
	"github.com/gin-gonic/gin"
)

type AuthUserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, req user.CreateUserRequest, passwordHash string) (user.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

type AuthHandler struct {
	users AuthUserStore
	jwt   *auth.Manager
	log   *slog.Logger
}

func NewAuthHandler(users AuthUserStore, jwt *auth.Manager, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// only an unknown email is a credential failure; a store outage is not
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "INVALID_CREDENTIALS", "Email or password is incorrect.")
			return
		}
		RespondInternal(ctx, "Could not sign in")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "INVALID_CREDENTIALS", "Email or password is incorrect.")
		return
	}

	if !found.IsActive {
		RespondUnauthorized(ctx, "ACCOUNT_DEACTIVATED", "Account is deactivated.")
		return
	}

	pair, err := h.jwt.IssuePair(found.ID, found.Email, string(found.Role))
	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	// best effort, a failed stamp never blocks the login
	if err := h.users.UpdateLastLogin(cctx, found.ID, time.Now().UTC()); err != nil {
		h.log.Warn("update last login", "user_id", found.ID, "error", err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":         found,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	created, err := h.users.Create(cctx, req, hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "EMAIL_EXISTS", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	pair, err := h.jwt.IssuePair(created.ID, created.Email, string(created.Role))
	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":         created,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Refresh exchanges a refresh token for a fresh pair. An expired refresh
// token with a sound signature is still renewable; the account re-check is
// what actually gates the exchange, and the new pair carries the account's
// current role so stale role claims heal here.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if err := ctx.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		RespondBadRequest(ctx, "NO_REFRESH_TOKEN", "Missing refresh token", nil)
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.RefreshToken)
	if err != nil && !errors.Is(err, auth.ErrTokenExpired) {
		RespondUnauthorized(ctx, "INVALID_TOKEN", "Invalid refresh token")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	found, err := h.users.GetByID(cctx, claims.UserID)
	if err != nil || !found.IsActive {
		RespondUnauthorized(ctx, "USER_INACTIVE", "Account is deactivated.")
		return
	}

	pair, err := h.jwt.IssuePair(found.ID, found.Email, string(found.Role))
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "NOT_AUTHENTICATED", "Missing identity context")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "USER_NOT_FOUND", "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": found})
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "NOT_AUTHENTICATED", "Missing identity context")
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	found, err := h.users.GetByID(cctx, userID)
	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.CurrentPassword); err != nil {
		RespondBadRequest(ctx, "INVALID_PASSWORD", "Current password is incorrect.", nil)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	if err := h.users.UpdatePassword(cctx, userID, hash); err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
