package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookshelf/internal/database"
	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書籍リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

const bookColumns = `id, title, author, isbn, description, category, created_by, created_at, updated_at`

func scanBook(row rowScanner) (*model.Book, error) {
	book := &model.Book{}
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.ISBN, &book.Desc,
		&book.Category, &book.CreatedBy, &book.CreatedAt, &book.UpdatedAt); err != nil {
		return nil, err
	}
	return book, nil
}

// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id string) (*model.Book, error) {
	if !isUUID(id) {
		return nil, nil
	}
	book, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}
	return book, nil
}

// FindByTitle はタイトルが完全一致する書籍を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByTitle(ctx context.Context, title string) (*model.Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title = $1`,
		title,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by title: %w", err)
	}
	return book, nil
}

// ListWithOwner は全書籍を作成者情報付きで返す。
// 作成者が存在しない書籍は CreatedBy が nil になる。
func (r *PostgresBookRepo) ListWithOwner(ctx context.Context) ([]model.BookWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.title, b.author, b.isbn, b.description, b.category,
		        b.created_at, b.updated_at,
		        u.id, u.fullname, u.email
		 FROM books b
		 LEFT JOIN users u ON u.id = b.created_by
		 ORDER BY b.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []model.BookWithOwner{}
	for rows.Next() {
		var b model.BookWithOwner
		var ownerID, ownerName, ownerEmail sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Desc, &b.Category,
			&b.CreatedAt, &b.UpdatedAt, &ownerID, &ownerName, &ownerEmail); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		if ownerID.Valid {
			b.CreatedBy = &model.UserSummary{
				ID:       ownerID.String,
				Fullname: ownerName.String,
				Email:    ownerEmail.String,
			}
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

// CreateWithSnapshot は書籍の作成と作成者へのスナップショット追記を同一トランザクションで行う。
func (r *PostgresBookRepo) CreateWithSnapshot(ctx context.Context, book *model.Book) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (id, title, author, isbn, description, category, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		book.ID, book.Title, book.Author, book.ISBN, book.Desc, book.Category,
		book.CreatedBy, book.CreatedAt, book.UpdatedAt,
	)
	if database.IsUniqueViolation(err, bookTitleUniqueIndex) {
		return model.NewDuplicateTitleError(book.Title)
	}
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	if err := appendBookSnapshot(ctx, tx, book.CreatedBy, book.Snapshot()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は書籍の内容を上書きする。対象が存在しない場合はfalseを返す。
// created_by と created_at は変更しない。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	if !isUUID(book.ID) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET title = $2, author = $3, isbn = $4, description = $5, category = $6, updated_at = $7
		 WHERE id = $1`,
		book.ID, book.Title, book.Author, book.ISBN, book.Desc, book.Category, book.UpdatedAt,
	)
	if database.IsUniqueViolation(err, bookTitleUniqueIndex) {
		return false, model.NewDuplicateTitleError(book.Title)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteByID は指定IDの書籍を削除する。存在しない場合もエラーにしない。
// ユーザーのbooks列のスナップショットは残る。
func (r *PostgresBookRepo) DeleteByID(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
