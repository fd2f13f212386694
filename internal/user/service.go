// Package user はユーザー情報の参照を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// UpdatePlaceholderMessage はユーザー更新エンドポイントが返す固定メッセージ。
const UpdatePlaceholderMessage = "update a user endpoint"

// Service はユーザー参照のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List は全ユーザーを返す。認可は行わない。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// GetByID は指定IDのユーザーを返す。存在しない場合は UserNotFound エラーを返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Profile はログイン中の閲覧者に指定ユーザーの最新情報を返す。
// 閲覧者が未ログインの場合は Access denied を返す。
func (s *Service) Profile(ctx context.Context, viewer *model.UserSnapshot, id string) (*model.User, error) {
	if viewer == nil {
		return nil, model.NewAccessDeniedError()
	}
	return s.GetByID(ctx, id)
}

// Update はユーザー更新の未実装エンドポイント。入力を変更せず固定メッセージを返す。
func (s *Service) Update(ctx context.Context, id string) string {
	slog.Debug("ユーザー更新は未実装です", slog.String("user_id", id))
	return UpdatePlaceholderMessage
}
