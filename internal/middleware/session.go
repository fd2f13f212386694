// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionResolver はセッションIDから有効なセッションを解決するインターフェース。
// 存在しないか期限切れの場合はnilを返す。
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*model.Session, error)
}

// SessionCookieReader はリクエストから署名検証済みのセッションIDを読み取るインターフェース。
type SessionCookieReader interface {
	Read(r *http.Request) (string, bool)
}

// NewSessionMiddleware はCookieからセッションを解決し、リクエストコンテキストに注入するミドルウェアを返す。
// すべてのリクエストで実行し、拒否はしない。
// Cookieが無い、署名が不正、期限切れ、ストア障害のいずれの場合も匿名として後続に渡す。
func NewSessionMiddleware(resolver SessionResolver, cookies SessionCookieReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolve(r, resolver, cookies)
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// resolve はリクエストのセッションを返す。匿名として扱う場合はnil。
func resolve(r *http.Request, resolver SessionResolver, cookies SessionCookieReader) *model.Session {
	sessionID, ok := cookies.Read(r)
	if !ok {
		return nil
	}
	session, err := resolver.ResolveSession(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to resolve session",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return session
}

// sessionSlot はリクエスト処理中に発行されたセッションも保持できる格納先。
type sessionSlot struct {
	session *model.Session
}

// ContextWithSession はコンテキストにセッションの格納先を注入する。sessionはnilでもよい。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, &sessionSlot{session: session})
}

// AttachSession はリクエスト処理中に発行したセッションを格納先に登録する。
// 以降の SessionFromContext はこのセッションを返す。格納先が無い場合はfalse。
func AttachSession(ctx context.Context, session *model.Session) bool {
	slot, _ := ctx.Value(sessionContextKey).(*sessionSlot)
	if slot == nil {
		return false
	}
	slot.session = session
	return true
}

// SessionFromContext はリクエストコンテキストのセッションを返す。セッションが無い場合はnil。
func SessionFromContext(ctx context.Context) *model.Session {
	slot, _ := ctx.Value(sessionContextKey).(*sessionSlot)
	if slot == nil {
		return nil
	}
	return slot.session
}

// CurrentUserFromContext はログイン中ユーザーのスナップショットを返す。
// 未ログインまたは匿名セッションの場合はnil。
func CurrentUserFromContext(ctx context.Context) *model.UserSnapshot {
	session := SessionFromContext(ctx)
	if session == nil {
		return nil
	}
	return session.AuthUser
}

// UserIDFromContext はリクエストコンテキストからログイン中のユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID := SessionFromContext(ctx).UserID()
	if userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
