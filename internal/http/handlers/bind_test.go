package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcarvalho/projectdesk/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type bindTarget struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,min=2"`
}

func bindRouter() *gin.Engine {
	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		var req bindTarget
		if !handlers.BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})
	return r
}

func postJSON(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON(t *testing.T) {
	r := bindRouter()

	t.Run("valid body passes through", func(t *testing.T) {
		w := postJSON(t, r, `{"email":"ana@example.com","name":"Ana"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (body %s)", w.Code, w.Body.String())
		}
	})

	t.Run("validator failure lists fields", func(t *testing.T) {
		w := postJSON(t, r, `{"email":"not-an-email"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}

		var resp struct {
			Error struct {
				Code    string `json:"code"`
				Details struct {
					Fields []struct {
						Field string `json:"field"`
						Rule  string `json:"rule"`
					} `json:"fields"`
				} `json:"details"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Error.Code != "VALIDATION_ERROR" {
			t.Fatalf("code = %q; want VALIDATION_ERROR", resp.Error.Code)
		}
		if len(resp.Error.Details.Fields) != 2 {
			t.Fatalf("fields = %+v; want 2 entries (email, name)", resp.Error.Details.Fields)
		}

		seen := map[string]string{}
		for _, f := range resp.Error.Details.Fields {
			seen[f.Field] = f.Rule
		}
		if seen["email"] != "email" {
			t.Fatalf("email rule = %q; want email", seen["email"])
		}
		if seen["name"] != "required" {
			t.Fatalf("name rule = %q; want required", seen["name"])
		}
	})

	t.Run("broken json is a syntax error", func(t *testing.T) {
		// a truncated body and an empty one both decode to EOF errors,
		// not *json.SyntaxError; all three must carry the same marker
		for _, body := range []string{`{"email":`, `{"email" "x"}`, ``} {
			w := postJSON(t, r, body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("body %q: status = %d; want 400", body, w.Code)
			}

			var resp struct {
				Error struct {
					Details struct {
						JSON string `json:"json"`
					} `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body %q: unmarshal: %v", body, err)
			}
			if resp.Error.Details.JSON != "invalid_json_syntax" {
				t.Fatalf("body %q: details = %s; want the invalid_json_syntax marker", body, w.Body.String())
			}
		}
	})

	t.Run("type mismatch names the field", func(t *testing.T) {
		w := postJSON(t, r, `{"email":"ana@example.com","name":42}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}

		var resp struct {
			Error struct {
				Details struct {
					Field string `json:"field"`
				} `json:"details"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Error.Details.Field != "name" {
			t.Fatalf("field = %q; want name", resp.Error.Details.Field)
		}
	})
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int
		wantPages int
	}{
		{name: "exact fit", page: 1, limit: 10, total: 30, wantPages: 3},
		{name: "partial last page", page: 2, limit: 10, total: 31, wantPages: 4},
		{name: "empty", page: 1, limit: 10, total: 0, wantPages: 0},
		{name: "single item", page: 1, limit: 10, total: 1, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := handlers.NewPagination(tt.page, tt.limit, tt.total)
			if p.TotalPages != tt.wantPages {
				t.Fatalf("totalPages = %d; want %d", p.TotalPages, tt.wantPages)
			}
			if p.Page != tt.page || p.Limit != tt.limit || p.Total != tt.total {
				t.Fatalf("pagination = %+v; inputs not echoed", p)
			}
		})
	}
}
