package model

import "time"

// Session はサーバー側に保存されるセッションを表す。
// AuthUser が nil のセッションは匿名セッション（フラッシュメッセージの保持のみ）。
type Session struct {
	ID        string
	AuthUser  *UserSnapshot
	Flash     []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionData はセッションのdataカラムに保存するペイロード。
type SessionData struct {
	AuthUser *UserSnapshot `json:"authUser,omitempty"`
	Flash    []string      `json:"flash,omitempty"`
}

// UserID は認証済みユーザーのIDを返す。匿名セッションでは空文字列。
func (s *Session) UserID() string {
	if s == nil || s.AuthUser == nil {
		return ""
	}
	return s.AuthUser.ID
}

// Expired は指定時刻においてセッションが期限切れかを判定する。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
