package auth

import (
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
)

// SessionCookieName はセッションIDを運ぶCookie名。
const SessionCookieName = "bookshelf_session"

// CookieConfig はセッションCookieの設定。
type CookieConfig struct {
	Secret []byte // HMAC署名鍵
	Domain string
	Secure bool
}

// SessionCookie はHMAC署名付きのセッションCookieを読み書きする。
// 有効期限はサーバー側のセッションが書き込みのたびに延長するため、
// CookieにはMax-Ageを付けずブラウザのセッション中は保持させる。署名のタイムスタンプ検証も無効にする。
type SessionCookie struct {
	codec  *securecookie.SecureCookie
	config CookieConfig
}

// NewSessionCookie はSessionCookieを生成する。
func NewSessionCookie(config CookieConfig) *SessionCookie {
	codec := securecookie.New(config.Secret, nil)
	codec.MaxAge(0)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &SessionCookie{codec: codec, config: config}
}

// Read はリクエストからセッションIDを取り出す。
// Cookieが無い、または署名が一致しない場合はfalseを返す。
func (c *SessionCookie) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var sessionID string
	if err := c.codec.Decode(SessionCookieName, cookie.Value, &sessionID); err != nil {
		return "", false
	}
	if sessionID == "" {
		return "", false
	}
	return sessionID, true
}

// Write はセッションIDを署名してCookieに設定する（HTTP Only）。
func (c *SessionCookie) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.codec.Encode(SessionCookieName, sessionID)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.config.Domain,
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear はセッションCookieを削除する。
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
