package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func gatedRouter(preset string, allowed ...string) *gin.Engine {
	r := gin.New()

	attach := func(c *gin.Context) {
		if preset != "" {
			c.Set(middlewares.CtxRole, preset)
			c.Set(middlewares.CtxUserID, "u1")
		}
		c.Next()
	}

	r.DELETE("/admin-only", attach, middlewares.RequireRole(allowed...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return r
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		allowed    []string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no claims at all",
			role:       "",
			allowed:    []string{"ADMIN"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "NOT_AUTHENTICATED",
		},
		{
			name:       "role not in allow-list",
			role:       "VIEWER",
			allowed:    []string{"ADMIN", "MANAGER"},
			wantStatus: http.StatusForbidden,
			wantCode:   "NOT_AUTHORIZED",
		},
		{
			name:       "exact match",
			role:       "ADMIN",
			allowed:    []string{"ADMIN"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "one of several",
			role:       "MANAGER",
			allowed:    []string{"ADMIN", "MANAGER"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "case sensitive",
			role:       "admin",
			allowed:    []string{"ADMIN"},
			wantStatus: http.StatusForbidden,
			wantCode:   "NOT_AUTHORIZED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/admin-only", nil)
			w := httptest.NewRecorder()

			gatedRouter(tt.role, tt.allowed...).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				if got := errCode(t, w.Body.Bytes()); got != tt.wantCode {
					t.Fatalf("code = %q; want %q", got, tt.wantCode)
				}
			}
		})
	}
}
