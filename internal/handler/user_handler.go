package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/view"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Profile(ctx context.Context, viewer *model.UserSnapshot, id string) (*model.User, error)
	Update(ctx context.Context, id string) string
}

// UserHandler はユーザー参照のHTTPハンドラー。
type UserHandler struct {
	*responder
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(rs *responder, service UserServiceInterface) *UserHandler {
	return &UserHandler{responder: rs, service: service}
}

// List は全ユーザーを返す。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"allusers": users})
}

// Get は指定IDのユーザーを返す。
// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"singleuser": user})
}

// Profile はログイン中の閲覧者にユーザーのプロフィールページを表示する。
// GET /api/users/profile/{id}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.CurrentUserFromContext(r.Context())
	user, err := h.service.Profile(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageProfile, view.PageData{Profile: user})
}

// Update はユーザー更新の未実装エンドポイント。
// PUT /api/users/update/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	msg := h.service.Update(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]string{"msg": msg})
}
