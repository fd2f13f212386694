package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/auth"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// SessionCookieManager はセッションCookieの読み書きインターフェース。
type SessionCookieManager interface {
	Read(r *http.Request) (string, bool)
	Write(w http.ResponseWriter, sessionID string) error
	Clear(w http.ResponseWriter)
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	*responder
	service AuthServiceInterface
	cookies SessionCookieManager
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(rs *responder, service AuthServiceInterface, cookies SessionCookieManager) *AuthHandler {
	return &AuthHandler{responder: rs, service: service, cookies: cookies}
}

// RegisterForm は登録フォームを表示する。
// GET /api/users/register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageRegister, view.PageData{})
}

// Register はユーザーを登録し、ログインページへリダイレクトする。
// POST /api/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.Register(r.Context(), auth.RegisterInput{
		Fullname: r.FormValue("fullname"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			h.handleServiceError(w, err)
			return
		}
		h.redirectWithFlash(w, r, "/api/users/register", apiErr.Message)
		return
	}

	http.Redirect(w, r, "/api/users/login", http.StatusFound)
}

// LoginForm はログインフォームを表示する。
// GET /api/users/login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageLogin, view.PageData{})
}

// Login は認証に成功するとセッションCookieを発行し、プロフィールへリダイレクトする。
// POST /api/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			h.handleServiceError(w, err)
			return
		}
		h.redirectWithFlash(w, r, "/api/users/login", apiErr.Message)
		return
	}

	// ログイン前のセッション（匿名を含む）は破棄する
	if priorID, ok := h.cookies.Read(r); ok && priorID != session.ID {
		if err := h.service.Logout(r.Context(), priorID); err != nil {
			slog.Warn("failed to discard prior session", slog.String("error", err.Error()))
		}
	}

	if err := h.cookies.Write(w, session.ID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/api/users/profile/"+session.UserID(), http.StatusFound)
}

// Logout はセッションを破棄し、ログインページを表示する。
// GET /api/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := h.cookies.Read(r); ok {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			h.handleServiceError(w, err)
			return
		}
	}
	h.cookies.Clear(w)

	// 破棄済みのセッションを参照しないよう、リクエストの状態は使わずに描画する
	if err := h.renderer.Render(w, http.StatusOK, view.PageLogin, view.PageData{}); err != nil {
		h.handleServiceError(w, err)
	}
}
