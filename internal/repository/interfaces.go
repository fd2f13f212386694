// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// 一意インデックス名。マイグレーションと一致させること。
const (
	userEmailUniqueIndex = "users_email_lower_key"
	bookTitleUniqueIndex = "books_title_key"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に登録済みの場合は DuplicateUser エラーを返す。
	Create(ctx context.Context, user *model.User) error

	// AppendBookSnapshot はユーザーのbooks列に書籍スナップショットを追記する。
	AppendBookSnapshot(ctx context.Context, userID string, snapshot model.BookSnapshot) error
}

// BookRepository は書籍データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// FindByTitle はタイトルが完全一致する書籍を取得する。見つからない場合はnilを返す。
	FindByTitle(ctx context.Context, title string) (*model.Book, error)

	// ListWithOwner は全書籍を作成者情報付きで作成日時の昇順に返す。
	ListWithOwner(ctx context.Context) ([]model.BookWithOwner, error)

	// CreateWithSnapshot は書籍の作成と作成者のbooks列への追記を同一トランザクションで行う。
	// タイトルが既に存在する場合は DuplicateTitle エラーを返す。
	CreateWithSnapshot(ctx context.Context, book *model.Book) error

	// Update は書籍の内容を上書きする。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, book *model.Book) (bool, error)

	// DeleteByID は指定IDの書籍を削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。存在しないか期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Save はセッションの内容を書き換え、有効期限を expiresAt に更新する。
	Save(ctx context.Context, session *model.Session, expiresAt time.Time) error
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
