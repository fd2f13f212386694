// Package flash はサーバー側セッションに保存する一度きりのメッセージを提供する。
package flash

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
)

// SessionStore はフラッシュメッセージの保存先となるセッションを扱うインターフェース。
type SessionStore interface {
	StartAnonymousSession(ctx context.Context) (*model.Session, error)
	SaveSession(ctx context.Context, session *model.Session) error
}

// CookieWriter はセッションIDをCookieに書き込むインターフェース。
type CookieWriter interface {
	Write(w http.ResponseWriter, sessionID string) error
}

// Flasher はリクエストのセッションにフラッシュメッセージを出し入れする。
type Flasher struct {
	store   SessionStore
	cookies CookieWriter
}

// NewFlasher はFlasherを生成する。
func NewFlasher(store SessionStore, cookies CookieWriter) *Flasher {
	return &Flasher{store: store, cookies: cookies}
}

// Add はメッセージを現在のセッションに追加する。
// セッションが無い場合は匿名セッションを発行し、Cookieを設定する。
// 発行したセッションはコンテキストに登録し、同じリクエスト内の後続の呼び出しで再利用する。
func (f *Flasher) Add(w http.ResponseWriter, r *http.Request, message string) error {
	ctx := r.Context()
	session := middleware.SessionFromContext(ctx)
	if session == nil {
		anon, err := f.store.StartAnonymousSession(ctx)
		if err != nil {
			return fmt.Errorf("failed to start session for flash: %w", err)
		}
		if err := f.cookies.Write(w, anon.ID); err != nil {
			return err
		}
		middleware.AttachSession(ctx, anon)
		session = anon
	}

	session.Flash = append(session.Flash, message)
	if err := f.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save flash message: %w", err)
	}
	return nil
}

// Pop は保留中のメッセージを返し、セッションから取り除く。
// メッセージが無い場合はセッションを書き換えない。
func (f *Flasher) Pop(r *http.Request) []string {
	ctx := r.Context()
	session := middleware.SessionFromContext(ctx)
	if session == nil || len(session.Flash) == 0 {
		return nil
	}

	messages := session.Flash
	session.Flash = nil
	if err := f.store.SaveSession(ctx, session); err != nil {
		// 表示は行い、削除に失敗したメッセージは次回また表示される
		slog.Error("failed to clear flash messages",
			slog.String("error", err.Error()),
		)
	}
	return messages
}
