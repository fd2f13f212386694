package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/database"
	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, fullname, email, password_hash, books, created_at, updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var books []byte
	if err := row.Scan(&user.ID, &user.Fullname, &user.Email, &user.PasswordHash,
		&books, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(books, &user.Books); err != nil {
		return nil, fmt.Errorf("failed to decode user books: %w", err)
	}
	if user.Books == nil {
		user.Books = []model.BookSnapshot{}
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// List は全ユーザーを作成日時の昇順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	books, err := json.Marshal(nonNilSnapshots(user.Books))
	if err != nil {
		return fmt.Errorf("failed to encode user books: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, fullname, email, password_hash, books, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Fullname, user.Email, user.PasswordHash, books, user.CreatedAt, user.UpdatedAt,
	)
	if database.IsUniqueViolation(err, userEmailUniqueIndex) {
		return model.NewDuplicateUserError()
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// AppendBookSnapshot はユーザーのbooks列に書籍スナップショットを追記する。
func (r *PostgresUserRepo) AppendBookSnapshot(ctx context.Context, userID string, snapshot model.BookSnapshot) error {
	return appendBookSnapshot(ctx, r.db, userID, snapshot)
}

// execer は*sql.DBと*sql.Txの共通インターフェース。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendBookSnapshot(ctx context.Context, db execer, userID string, snapshot model.BookSnapshot) error {
	payload, err := json.Marshal([]model.BookSnapshot{snapshot})
	if err != nil {
		return fmt.Errorf("failed to encode book snapshot: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE users SET books = books || $2::jsonb, updated_at = now() WHERE id = $1`,
		userID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append book snapshot: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError(userID)
	}
	return nil
}

// isUUID はidカラムに渡せる形式かを判定する。
// 形式外のIDはPostgreSQLがエラーにするため、存在しないIDとして扱う。
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nonNilSnapshots(books []model.BookSnapshot) []model.BookSnapshot {
	if books == nil {
		return []model.BookSnapshot{}
	}
	return books
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
