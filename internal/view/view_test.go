package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

func newRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	r, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("NewTemplateRenderer returned error: %v", err)
	}
	return r
}

func TestRender_AllPages(t *testing.T) {
	r := newRenderer(t)
	data := PageData{
		Books: []model.BookWithOwner{{ID: "b-1", Title: "Dune", CreatedBy: &model.UserSummary{Fullname: "Ann"}}},
		Book:  &model.Book{ID: "b-1", Title: "Dune", Category: model.CategoryNovel},
		Profile: &model.User{
			Fullname:  "Ann",
			CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, name := range pages {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := r.Render(w, http.StatusOK, name, data); err != nil {
				t.Fatalf("Render(%s) returned error: %v", name, err)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestRender_ShowsErrorsAndAuthUser(t *testing.T) {
	w := httptest.NewRecorder()
	err := newRenderer(t).Render(w, http.StatusOK, PageLogin, PageData{
		AuthUser: &model.UserSnapshot{ID: "u-1", Fullname: "Ann"},
		Errors:   []string{"Invalid user or password"},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Invalid user or password") {
		t.Error("flash error not rendered")
	}
	if !strings.Contains(body, "/api/users/profile/u-1") {
		t.Error("profile link for the logged-in user not rendered")
	}
}

func TestRender_EscapesBookText(t *testing.T) {
	w := httptest.NewRecorder()
	err := newRenderer(t).Render(w, http.StatusOK, PageIndex, PageData{
		Books: []model.BookWithOwner{{ID: "b", Title: "<script>x</script>"}},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(w.Body.String(), "<script>x</script>") {
		t.Error("book title must be escaped")
	}
}

func TestRender_EditMarksCurrentCategory(t *testing.T) {
	w := httptest.NewRecorder()
	err := newRenderer(t).Render(w, http.StatusOK, PageBookEdit, PageData{
		Book: &model.Book{ID: "b", Category: model.CategoryScience},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(w.Body.String(), `<option value="Science" selected>`) {
		t.Errorf("current category not selected:\n%s", w.Body.String())
	}
}

func TestRender_UnknownPage(t *testing.T) {
	w := httptest.NewRecorder()
	if err := newRenderer(t).Render(w, http.StatusOK, "missing", PageData{}); err == nil {
		t.Fatal("expected error for unknown page")
	}
	if w.Body.Len() != 0 {
		t.Error("nothing should be written on failure")
	}
}
