package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookshelf/internal/book"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/view"
)

// BookServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	ListAll(ctx context.Context) ([]model.BookWithOwner, error)
	Create(ctx context.Context, actor *model.UserSnapshot, input book.BookInput) (*model.Book, error)
	GetByID(ctx context.Context, id string) (*model.Book, error)
	Update(ctx context.Context, actor *model.UserSnapshot, id string, update book.BookUpdate) (*model.Book, error)
	DeleteByID(ctx context.Context, actor *model.UserSnapshot, id string) error
}

// BookHandler は書籍のHTTPハンドラー。
type BookHandler struct {
	*responder
	service BookServiceInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(rs *responder, service BookServiceInterface) *BookHandler {
	return &BookHandler{responder: rs, service: service}
}

// Index は作成者付きの書籍一覧ページを表示する。
// GET /
func (h *BookHandler) Index(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageIndex, view.PageData{Books: books})
}

// AddForm は書籍登録フォームを表示する。
// GET /api/books
func (h *BookHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageBookAdd, view.PageData{})
}

// Create は書籍を登録し、作成者のプロフィールへリダイレクトする。
// POST /api/books
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUserFromContext(r.Context())
	_, err := h.service.Create(r.Context(), actor, book.BookInput{
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		ISBN:     r.FormValue("isbn"),
		Desc:     r.FormValue("desc"),
		Category: r.FormValue("category"),
	})
	if err != nil {
		if errors.Is(err, &model.APIError{Code: model.ErrCodeUnauthorized}) {
			h.redirectWithFlash(w, r, "/api/users/login", flashMessage(err))
			return
		}
		h.redirectWithFlash(w, r, "/api/books", flashMessage(err))
		return
	}

	http.Redirect(w, r, "/api/users/profile/"+actor.ID, http.StatusFound)
}

// ListJSON は作成者付きの全書籍をJSONで返す。
// GET /api/books/all
func (h *BookHandler) ListJSON(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if books == nil {
		books = []model.BookWithOwner{}
	}
	writeJSON(w, http.StatusOK, books)
}

// Delete は書籍を削除し、トップへリダイレクトする。
// GET /api/books/delete/{id}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUserFromContext(r.Context())
	if err := h.service.DeleteByID(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.redirectWithFlash(w, r, "/", flashMessage(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// EditForm は書籍の編集フォームを表示する。見つからない場合はトップへ戻す。
// GET /api/books/{id}
func (h *BookHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.redirectWithFlash(w, r, "/", flashMessage(err))
		return
	}
	h.render(w, r, http.StatusOK, view.PageBookEdit, view.PageData{Book: b})
}

// Update は送信されたフィールドのみ書籍を更新し、トップへリダイレクトする。
// POST /api/books/{id}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUserFromContext(r.Context())
	update := book.BookUpdate{
		Title:    postedValue(r, "title"),
		Author:   postedValue(r, "author"),
		ISBN:     postedValue(r, "isbn"),
		Desc:     postedValue(r, "desc"),
		Category: postedValue(r, "category"),
	}
	if _, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), update); err != nil {
		h.redirectWithFlash(w, r, "/", flashMessage(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// postedValue はボディに含まれるフィールドの値を返す。含まれない場合はnil。
func postedValue(r *http.Request, key string) *string {
	if r.PostForm == nil {
		// ボディ解析ミドルウェアを通らない呼び出し向け
		_ = r.ParseForm()
	}
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
