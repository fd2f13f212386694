// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/view"
)

// Flasher はフラッシュメッセージを出し入れするインターフェース。
type Flasher interface {
	Add(w http.ResponseWriter, r *http.Request, message string) error
	Pop(r *http.Request) []string
}

// responder はハンドラー間で共有するレスポンス出力をまとめる。
type responder struct {
	errors   *middleware.ErrorWriter
	renderer view.Renderer
	flasher  Flasher
}

// writeJSON は値をJSONで書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func (rs *responder) handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		rs.errors.WriteAPIError(w, mapAPIErrorToHTTPStatus(apiErr), apiErr, err)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	rs.errors.WriteError(w, http.StatusInternalServerError, err)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidCategory:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateUser, model.ErrCodeDuplicateTitle:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound, model.ErrCodeBookNotFound, model.ErrCodeRouteNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// render はページを描画する。AuthUserとErrorsが未設定ならリクエストから補う。
func (rs *responder) render(w http.ResponseWriter, r *http.Request, status int, name string, data view.PageData) {
	if data.AuthUser == nil {
		data.AuthUser = middleware.CurrentUserFromContext(r.Context())
	}
	if data.Errors == nil {
		data.Errors = rs.flasher.Pop(r)
	}
	if err := rs.renderer.Render(w, status, name, data); err != nil {
		rs.handleServiceError(w, err)
	}
}

// redirectWithFlash はメッセージを保存してからリダイレクトする。
// メッセージの保存に失敗してもリダイレクトは行う。
func (rs *responder) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, message string) {
	if err := rs.flasher.Add(w, r, message); err != nil {
		slog.Error("failed to store flash message",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// flashMessage はエラーから利用者に見せるメッセージを取り出す。
func flashMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	slog.Error("internal server error", slog.String("error", err.Error()))
	return err.Error()
}
