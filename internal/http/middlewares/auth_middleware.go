package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dcarvalho/projectdesk/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// AccountChecker is the per-request liveness check: a signed token is not
// enough, the account must still exist and be active.
type AccountChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	accounts AccountChecker
}

func NewAuthMiddleware(jwt TokenVerifier, accounts AccountChecker) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, accounts: accounts}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "NO_TOKEN", "Missing or malformed Authorization header")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortUnauthorized(c, "TOKEN_EXPIRED", "Access token has expired")
				return
			}
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid access token")
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		active, err := m.accounts.IsActive(cctx, claims.UserID)
		cancel()

		// A missing account and a deactivated one read the same from outside.
		if err != nil || !active {
			abortUnauthorized(c, "USER_INACTIVE", "Account is deactivated")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is presented and stays
// silent otherwise. Handlers behind it must tolerate missing identity.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			c.Next()
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		active, err := m.accounts.IsActive(cctx, claims.UserID)
		cancel()

		if err == nil && active {
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.Role)
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if raw == "" {
		return "", false
	}

	return raw, true
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
