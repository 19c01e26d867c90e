package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dcarvalho/projectdesk/internal/auth"
	"github.com/dcarvalho/projectdesk/internal/domain/user"
	"github.com/dcarvalho/projectdesk/internal/http/handlers"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/dcarvalho/projectdesk/internal/security"
	"github.com/gin-gonic/gin"
)

type fakeUsersStore struct {
	getByEmailFn      func(ctx context.Context, email string) (user.User, error)
	getByIDFn         func(ctx context.Context, id string) (user.User, error)
	createFn          func(ctx context.Context, req user.CreateUserRequest, hash string) (user.User, error)
	updateLastLoginFn func(ctx context.Context, id string, at time.Time) error
	updatePasswordFn  func(ctx context.Context, id string, hash string) error
}

func (f *fakeUsersStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersStore) Create(ctx context.Context, req user.CreateUserRequest, hash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, hash)
	}
	return user.User{}, nil
}

func (f *fakeUsersStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if f.updateLastLoginFn != nil {
		return f.updateLastLoginFn(ctx, id, at)
	}
	return nil
}

func (f *fakeUsersStore) UpdatePassword(ctx context.Context, id string, hash string) error {
	if f.updatePasswordFn != nil {
		return f.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testManager() *auth.Manager {
	return auth.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func activeUser(t *testing.T, password string) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	return user.User{
		ID:           "u1",
		Name:         "Ana Souza",
		Email:        "ana@example.com",
		PasswordHash: hash,
		Role:         user.RoleEngineer,
		IsActive:     true,
	}
}

func authRouter(h *handlers.AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/refresh", h.Refresh)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	existing := activeUser(t, "correct-horse")

	var lastLoginStamped bool

	store := &fakeUsersStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == existing.Email {
				return existing, nil
			}
			return user.User{}, user.ErrNotFound
		},
		updateLastLoginFn: func(ctx context.Context, id string, at time.Time) error {
			lastLoginStamped = true
			return nil
		},
	}

	h := handlers.NewAuthHandler(store, testManager(), discardLogger())
	r := authRouter(h)

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"whatever"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "INVALID_CREDENTIALS" {
			t.Fatalf("code = %q; want INVALID_CREDENTIALS", got)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"wrong"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "INVALID_CREDENTIALS" {
			t.Fatalf("code = %q; want INVALID_CREDENTIALS", got)
		}
	})

	t.Run("success returns pair and stamps login", func(t *testing.T) {
		lastLoginStamped = false

		w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"correct-horse"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
		}

		var resp struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
			User         struct {
				Email        string `json:"email"`
				PasswordHash string `json:"passwordHash"`
			} `json:"user"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Fatal("expected both tokens in the response")
		}
		if resp.User.PasswordHash != "" {
			t.Fatal("password hash leaked into the response")
		}
		if !lastLoginStamped {
			t.Fatal("expected last login to be stamped")
		}
	})

	t.Run("store outage is not a credential failure", func(t *testing.T) {
		h := handlers.NewAuthHandler(&fakeUsersStore{
			getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
				return user.User{}, errors.New("connection refused")
			},
		}, testManager(), discardLogger())

		w := doJSON(authRouter(h), http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"correct-horse"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "INTERNAL_ERROR" {
			t.Fatalf("code = %q; want INTERNAL_ERROR", got)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		inactive := activeUser(t, "correct-horse")
		inactive.IsActive = false

		h := handlers.NewAuthHandler(&fakeUsersStore{
			getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
				return inactive, nil
			},
		}, testManager(), discardLogger())

		w := doJSON(authRouter(h), http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"correct-horse"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "ACCOUNT_DEACTIVATED" {
			t.Fatalf("code = %q; want ACCOUNT_DEACTIVATED", got)
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("duplicate email", func(t *testing.T) {
		h := handlers.NewAuthHandler(&fakeUsersStore{
			createFn: func(ctx context.Context, req user.CreateUserRequest, hash string) (user.User, error) {
				return user.User{}, user.ErrEmailTaken
			},
		}, testManager(), discardLogger())

		w := doJSON(authRouter(h), http.MethodPost, "/auth/register",
			`{"name":"Ana","email":"ana@example.com","password":"long-enough"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d; want 409", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "EMAIL_EXISTS" {
			t.Fatalf("code = %q; want EMAIL_EXISTS", got)
		}
	})

	t.Run("password is hashed before the store sees it", func(t *testing.T) {
		var sawHash string

		h := handlers.NewAuthHandler(&fakeUsersStore{
			createFn: func(ctx context.Context, req user.CreateUserRequest, hash string) (user.User, error) {
				sawHash = hash
				return user.User{ID: "u2", Email: req.Email, Role: user.RoleViewer, IsActive: true}, nil
			},
		}, testManager(), discardLogger())

		w := doJSON(authRouter(h), http.MethodPost, "/auth/register",
			`{"name":"Ana","email":"ana@example.com","password":"long-enough"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d; want 201 (body %s)", w.Code, w.Body.String())
		}
		if sawHash == "" || sawHash == "long-enough" {
			t.Fatalf("store received %q; want a bcrypt hash", sawHash)
		}
		if err := security.CheckPassword(sawHash, "long-enough"); err != nil {
			t.Fatalf("stored hash does not verify: %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	mgr := testManager()
	current := activeUser(t, "pw")
	current.Role = user.RoleManager // role changed since the token was minted

	store := &fakeUsersStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id == current.ID {
				return current, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	h := handlers.NewAuthHandler(store, mgr, discardLogger())
	r := authRouter(h)

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/refresh", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "NO_REFRESH_TOKEN" {
			t.Fatalf("code = %q; want NO_REFRESH_TOKEN", got)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/refresh", `{"refreshToken":"garbage"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "INVALID_TOKEN" {
			t.Fatalf("code = %q; want INVALID_TOKEN", got)
		}
	})

	t.Run("access token rejected on refresh path", func(t *testing.T) {
		pair, err := mgr.IssuePair(current.ID, current.Email, "ENGINEER")
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}

		w := doJSON(r, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+pair.AccessToken+`"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
	})

	t.Run("new pair carries the current role", func(t *testing.T) {
		// token minted with the old role
		pair, err := mgr.IssuePair(current.ID, current.Email, "ENGINEER")
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}

		w := doJSON(r, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+pair.RefreshToken+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
		}

		var resp struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		claims, err := mgr.VerifyAccessToken(resp.AccessToken)
		if err != nil {
			t.Fatalf("verify new access token: %v", err)
		}
		if claims.Role != string(user.RoleManager) {
			t.Fatalf("role = %q; want MANAGER (stale claims must heal)", claims.Role)
		}
	})

	t.Run("expired refresh token on an active account renews", func(t *testing.T) {
		// minted with the same secret but already past expiry
		expiredMgr := auth.NewManager("test-secret", -time.Minute, -time.Minute)

		pair, err := expiredMgr.IssuePair(current.ID, current.Email, string(current.Role))
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}
		if _, err := mgr.VerifyRefreshToken(pair.RefreshToken); !errors.Is(err, auth.ErrTokenExpired) {
			t.Fatalf("precondition: verify err = %v; want ErrTokenExpired", err)
		}

		w := doJSON(r, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+pair.RefreshToken+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
		}

		var resp struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.RefreshToken == "" {
			t.Fatal("expected a new refresh token")
		}

		claims, err := mgr.VerifyAccessToken(resp.AccessToken)
		if err != nil {
			t.Fatalf("verify new access token: %v", err)
		}
		if claims.Role != string(current.Role) {
			t.Fatalf("role = %q; want %q", claims.Role, current.Role)
		}
	})

	t.Run("deactivated account cannot refresh", func(t *testing.T) {
		pair, err := mgr.IssuePair(current.ID, current.Email, "ENGINEER")
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}

		inactive := current
		inactive.IsActive = false

		h := handlers.NewAuthHandler(&fakeUsersStore{
			getByIDFn: func(ctx context.Context, id string) (user.User, error) {
				return inactive, nil
			},
		}, mgr, discardLogger())

		w := doJSON(authRouter(h), http.MethodPost, "/auth/refresh", `{"refreshToken":"`+pair.RefreshToken+`"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "USER_INACTIVE" {
			t.Fatalf("code = %q; want USER_INACTIVE", got)
		}
	})
}

func TestChangePassword(t *testing.T) {
	existing := activeUser(t, "old-password")

	var newHash string

	store := &fakeUsersStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			return existing, nil
		},
		updatePasswordFn: func(ctx context.Context, id string, hash string) error {
			newHash = hash
			return nil
		},
	}

	h := handlers.NewAuthHandler(store, testManager(), discardLogger())

	r := gin.New()
	r.POST("/auth/change-password", func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, existing.ID)
	}, h.ChangePassword)

	t.Run("wrong current password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/change-password",
			`{"currentPassword":"nope","newPassword":"new-password-1"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
		if got := errCode(t, w.Body.Bytes()); got != "INVALID_PASSWORD" {
			t.Fatalf("code = %q; want INVALID_PASSWORD", got)
		}
	})

	t.Run("success stores a new hash", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/change-password",
			`{"currentPassword":"old-password","newPassword":"new-password-1"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
		}
		if err := security.CheckPassword(newHash, "new-password-1"); err != nil {
			t.Fatalf("new hash does not verify: %v", err)
		}
	})
}

func errCode(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	return resp.Error.Code
}
