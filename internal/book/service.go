// Package book は蔵書の登録・一覧・更新・削除を提供する。
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
	"github.com/hitoshi/bookshelf/internal/validation"
)

// ServiceConfig は書籍サービスの設定。
type ServiceConfig struct {
	// OwnerOnlyMutations がtrueの場合、更新・削除は作成者本人のみ許可する。
	// falseの場合は誰でも任意の書籍を更新・削除できる。
	OwnerOnlyMutations bool
}

// BookInput は書籍登録の入力。
type BookInput struct {
	Title    string `json:"title" validate:"required,max=255"`
	Author   string `json:"author" validate:"required,max=255"`
	ISBN     string `json:"isbn" validate:"required,max=64"`
	Desc     string `json:"desc" validate:"required"`
	Category string `json:"category" validate:"required,oneof=Romantic Science Programming Novel"`
}

// BookUpdate は書籍更新の入力。nilのフィールドは変更しない。
type BookUpdate struct {
	Title    *string
	Author   *string
	ISBN     *string
	Desc     *string
	Category *string
}

// Service は書籍に関するビジネスロジックを提供する。
type Service struct {
	repo      repository.BookRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	repo repository.BookRepository,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   collector,
		config:    config,
		now:       time.Now,
	}
}

// ListAll は全書籍を作成者情報付きで返す。ページングは行わない。
func (s *Service) ListAll(ctx context.Context) ([]model.BookWithOwner, error) {
	books, err := s.repo.ListWithOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// Create はログイン中のユーザーを作成者として書籍を登録し、
// 作成者のbooks列にスナップショットを追記する。
func (s *Service) Create(ctx context.Context, actor *model.UserSnapshot, input BookInput) (*model.Book, error) {
	if actor == nil {
		return nil, model.NewUnauthorizedError()
	}

	input = s.sanitizeInput(input)
	if err := s.validate(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByTitle(ctx, input.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to find book by title: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateTitleError(input.Title)
	}

	now := s.now()
	b := &model.Book{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Author:    input.Author,
		ISBN:      input.ISBN,
		Desc:      input.Desc,
		Category:  model.Category(input.Category),
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateWithSnapshot(ctx, b); err != nil {
		return nil, passThroughAPIError(err, "failed to create book")
	}

	s.metrics.RecordBookCreated()
	slog.Info("book created",
		slog.String("book_id", b.ID),
		slog.String("user_id", actor.ID),
		slog.String("category", string(b.Category)),
	)
	return b, nil
}

// GetByID は指定IDの書籍を返す。存在しない場合は BookNotFound エラーを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	if b == nil {
		return nil, model.NewBookNotFoundError(id)
	}
	return b, nil
}

// Update は指定されたフィールドのみを書き換える。
// 存在しない場合は BookNotFound、不正な値は ValidationError / InvalidCategory を返す。
func (s *Service) Update(ctx context.Context, actor *model.UserSnapshot, id string, update BookUpdate) (*model.Book, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, b); err != nil {
		return nil, err
	}

	input := BookInput{
		Title:    b.Title,
		Author:   b.Author,
		ISBN:     b.ISBN,
		Desc:     b.Desc,
		Category: string(b.Category),
	}
	// 保存済みの値は作成時に処理済みのため、指定されたフィールドだけを処理する
	applyUpdate(&input, s.sanitizeUpdate(update))
	if err := s.validate(input); err != nil {
		return nil, err
	}

	if input.Title != b.Title {
		other, err := s.repo.FindByTitle(ctx, input.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to find book by title: %w", err)
		}
		if other != nil && other.ID != b.ID {
			return nil, model.NewDuplicateTitleError(input.Title)
		}
	}

	b.Title = input.Title
	b.Author = input.Author
	b.ISBN = input.ISBN
	b.Desc = input.Desc
	b.Category = model.Category(input.Category)
	b.UpdatedAt = s.now()

	found, err := s.repo.Update(ctx, b)
	if err != nil {
		return nil, passThroughAPIError(err, "failed to update book")
	}
	if !found {
		return nil, model.NewBookNotFoundError(id)
	}

	slog.Info("book updated",
		slog.String("book_id", b.ID),
		slog.String("user_id", actor.UserIDOrEmpty()),
	)
	return b, nil
}

// DeleteByID は書籍を削除する。存在しないIDでもエラーにしない。
func (s *Service) DeleteByID(ctx context.Context, actor *model.UserSnapshot, id string) error {
	if s.config.OwnerOnlyMutations {
		b, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to find book: %w", err)
		}
		if b == nil {
			return nil
		}
		if err := s.authorize(actor, b); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	slog.Info("book deleted",
		slog.String("book_id", id),
		slog.String("user_id", actor.UserIDOrEmpty()),
	)
	return nil
}

// authorize は作成者限定ポリシーが有効な場合に変更権限を確認する。
func (s *Service) authorize(actor *model.UserSnapshot, b *model.Book) error {
	if !s.config.OwnerOnlyMutations {
		return nil
	}
	if actor == nil {
		return model.NewUnauthorizedError()
	}
	if actor.ID != b.CreatedBy {
		return model.NewAccessDeniedError()
	}
	return nil
}

func (s *Service) sanitizeInput(input BookInput) BookInput {
	return BookInput{
		Title:    s.sanitizer.Sanitize(input.Title),
		Author:   s.sanitizer.Sanitize(input.Author),
		ISBN:     s.sanitizer.Sanitize(input.ISBN),
		Desc:     s.sanitizer.Sanitize(input.Desc),
		Category: s.sanitizer.Sanitize(input.Category),
	}
}

func (s *Service) sanitizeUpdate(update BookUpdate) BookUpdate {
	sanitize := func(v *string) *string {
		if v == nil {
			return nil
		}
		out := s.sanitizer.Sanitize(*v)
		return &out
	}
	return BookUpdate{
		Title:    sanitize(update.Title),
		Author:   sanitize(update.Author),
		ISBN:     sanitize(update.ISBN),
		Desc:     sanitize(update.Desc),
		Category: sanitize(update.Category),
	}
}

// validate は入力を検証する。カテゴリのみが不正な場合は InvalidCategory を返す。
func (s *Service) validate(input BookInput) error {
	err := validation.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) && len(fieldErrs) == 1 && fieldErrs.Has("category", "oneof") {
		return model.NewInvalidCategoryError(input.Category)
	}
	return model.NewValidationError(err.Error())
}

func applyUpdate(input *BookInput, update BookUpdate) {
	if update.Title != nil {
		input.Title = *update.Title
	}
	if update.Author != nil {
		input.Author = *update.Author
	}
	if update.ISBN != nil {
		input.ISBN = *update.ISBN
	}
	if update.Desc != nil {
		input.Desc = *update.Desc
	}
	if update.Category != nil {
		input.Category = *update.Category
	}
}

// passThroughAPIError はリポジトリが返したAPIErrorをそのまま返し、それ以外はラップする。
func passThroughAPIError(err error, msg string) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return fmt.Errorf("%s: %w", msg, err)
}
