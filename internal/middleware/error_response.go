package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/bookshelf/internal/model"
)

// ErrorResponseBody はエラーレスポンスの統一フォーマット。
// stackは診断用の詳細で、ErrorWriterの設定で無効にできる。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Stack    string `json:"stack,omitempty"`
}

// ErrorWriter は統一エラーフォーマットでエラーレスポンスを書き込む。
type ErrorWriter struct {
	includeStack bool
}

// NewErrorWriter はErrorWriterを生成する。includeStackがtrueの場合はstackを出力する。
func NewErrorWriter(includeStack bool) *ErrorWriter {
	return &ErrorWriter{includeStack: includeStack}
}

// WriteAPIError は*model.APIErrorをそのまま書き込む。stackには原因のエラー連鎖を入れる。
func (e *ErrorWriter) WriteAPIError(w http.ResponseWriter, statusCode int, apiErr *model.APIError, cause error) {
	body := ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
	if e.includeStack && cause != nil {
		body.Stack = errorChain(cause)
	}
	writeJSON(w, statusCode, body)
}

// WriteError はAPIError以外のエラーを内部エラーとして書き込む。
// メッセージには元のエラー内容を含める。
func (e *ErrorWriter) WriteError(w http.ResponseWriter, statusCode int, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		e.WriteAPIError(w, statusCode, apiErr, err)
		return
	}
	e.WriteAPIError(w, statusCode, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  err.Error(),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}, err)
}

// WritePanic はpanicの内容を500エラーとして書き込む。
func (e *ErrorWriter) WritePanic(w http.ResponseWriter, message string, stack []byte) {
	body := ErrorResponseBody{
		Code:     model.ErrCodeInternal,
		Message:  message,
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
	if e.includeStack {
		body.Stack = string(stack)
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// errorChain はラップされたエラーを外側から順に1行ずつ並べる。
func errorChain(err error) string {
	var lines []string
	for err != nil {
		lines = append(lines, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}
