package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/hitoshi/bookshelf/internal/model"
)

func TestRouter_UnmatchedRoute_Returns404JSON(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/api/nothing/here"},
		{http.MethodDelete, "/api/books"},
		{http.MethodPost, "/api/users"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(tt.method, tt.path, "", "")

			if w.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", w.Code)
			}
			body := decodeError(t, w)
			if body.Message != "Not found endpoint" {
				t.Errorf("message = %q, want Not found endpoint", body.Message)
			}
			if !strings.Contains(body.Stack, tt.path) {
				t.Errorf("stack = %q, want it to name the path", body.Stack)
			}
		})
	}
}

func TestRouter_RouteTable(t *testing.T) {
	env := newTestEnv(t, func(d *RouterDeps) {
		d.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		})
	})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/users", http.StatusOK},
		{http.MethodGet, "/api/users/register", http.StatusOK},
		{http.MethodGet, "/api/users/login", http.StatusOK},
		{http.MethodGet, "/api/users/logout", http.StatusOK},
		{http.MethodGet, "/api/users/u-404", http.StatusNotFound},
		{http.MethodGet, "/api/users/profile/u-1", http.StatusUnauthorized},
		{http.MethodPut, "/api/users/update/u-1", http.StatusOK},
		{http.MethodGet, "/api/books", http.StatusOK},
		{http.MethodGet, "/api/books/all", http.StatusOK},
		{http.MethodGet, "/api/books/delete/b-1", http.StatusFound},
		{http.MethodGet, "/api/books/b-404", http.StatusFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if w := env.do(tt.method, tt.path, "", ""); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRouter_GetBooks_RendersFormNotJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/books", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if env.renderer.name != "books/add" {
		t.Errorf("rendered %q, want books/add", env.renderer.name)
	}
}

func TestRouter_PanicReturnsJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	env.books.listFn = func(context.Context) ([]model.BookWithOwner, error) {
		panic("list exploded")
	}

	w := env.do(http.MethodGet, "/api/books/all", "", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeError(t, w); body.Message != "list exploded" || body.Stack == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/", "", "")

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should apply to every route")
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantState  string
	}{
		{
			name:       "all healthy",
			checks:     map[string]HealthCheck{"postgres": func(context.Context) error { return nil }},
			wantStatus: http.StatusOK,
			wantState:  "ok",
		},
		{
			name: "store unreachable",
			checks: map[string]HealthCheck{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantState:  "ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(d *RouterDeps) { d.HealthChecks = tt.checks })

			w := env.do(http.MethodGet, "/health", "", "")

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp healthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantState)
			}
			if len(resp.Checks) != len(tt.checks) {
				t.Errorf("checks = %v", resp.Checks)
			}
		})
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewValidationError("x"), http.StatusBadRequest},
		{model.NewInvalidCategoryError("Fantasy"), http.StatusBadRequest},
		{model.NewDuplicateUserError(), http.StatusConflict},
		{model.NewDuplicateTitleError("Dune"), http.StatusConflict},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewAccessDeniedError(), http.StatusUnauthorized},
		{model.NewUserNotFoundError("u"), http.StatusNotFound},
		{model.NewBookNotFoundError("b"), http.StatusNotFound},
		{model.NewRouteNotFoundError(), http.StatusNotFound},
		{&model.APIError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.err.Code, tt.err.Message), func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
