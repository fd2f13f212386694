// Package model はドメインモデルを定義する。
package model

import "time"

// User は蔵書を登録するユーザーを表す。
// Books は書籍作成時点のスナップショット列であり、書籍の更新・削除には追従しない。
type User struct {
	ID           string         `json:"id"`
	Fullname     string         `json:"fullname"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Books        []BookSnapshot `json:"books"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// UserSnapshot はログイン時点のユーザー情報のコピー。
// セッションに保存され、ログアウトまたは期限切れまで更新されない。
type UserSnapshot struct {
	ID        string         `json:"id"`
	Fullname  string         `json:"fullname"`
	Email     string         `json:"email"`
	Books     []BookSnapshot `json:"books"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Snapshot はユーザーの現時点のスナップショットを返す。
func (u *User) Snapshot() *UserSnapshot {
	books := make([]BookSnapshot, len(u.Books))
	copy(books, u.Books)
	return &UserSnapshot{
		ID:        u.ID,
		Fullname:  u.Fullname,
		Email:     u.Email,
		Books:     books,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserSummary は書籍一覧で作成者として表示するユーザーの要約。
type UserSummary struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// UserIDOrEmpty はユーザーIDを返す。nilの場合は空文字列。
func (u *UserSnapshot) UserIDOrEmpty() string {
	if u == nil {
		return ""
	}
	return u.ID
}
