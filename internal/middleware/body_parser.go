package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/hitoshi/bookshelf/internal/model"
)

// DefaultMaxBodyBytes はリクエストボディの既定の上限。
const DefaultMaxBodyBytes = 1 << 20

// NewBodyParserMiddleware はPOST/PUT/PATCHのボディをハンドラー実行前に解析するミドルウェアを返す。
// application/json と application/x-www-form-urlencoded のどちらもr.Form/r.PostFormに展開するため、
// ハンドラーはr.FormValueで値を取り出せる。
// JSONはオブジェクトのみ受け付け、スカラー値は文字列化する。壊れたJSONは400を返す。
func NewBodyParserMiddleware(maxBytes int64, errWriter *ErrorWriter) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r.Method) || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			var err error
			switch mediaType {
			case "application/json":
				err = parseJSONForm(r)
			case "application/x-www-form-urlencoded", "":
				err = r.ParseForm()
			}
			if err != nil {
				errWriter.WriteAPIError(w, statusForBodyError(err),
					model.NewValidationError("Malformed request body"), err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func statusForBodyError(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// parseJSONForm はJSONオブジェクトをフォーム値に変換してr.Form/r.PostFormに設定する。
func parseJSONForm(r *http.Request) error {
	var payload map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode JSON body: %w", err)
	}

	postForm := url.Values{}
	for key, value := range payload {
		switch v := value.(type) {
		case nil:
		case []any:
			for _, elem := range v {
				postForm.Add(key, fmt.Sprint(elem))
			}
		case map[string]any:
			encoded, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to re-encode JSON field %q: %w", key, err)
			}
			postForm.Set(key, string(encoded))
		default:
			postForm.Set(key, fmt.Sprint(v))
		}
	}

	form := url.Values{}
	for key, values := range r.URL.Query() {
		form[key] = append(form[key], values...)
	}
	for key, values := range postForm {
		form[key] = append(append([]string{}, values...), form[key]...)
	}

	r.PostForm = postForm
	r.Form = form
	return nil
}
