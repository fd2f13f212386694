// Package auth はユーザー登録、ログイン、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/validation"
)

// DefaultSessionTTL はセッションの既定の有効期間。
const DefaultSessionTTL = time.Hour

// maxPasswordBytes はbcryptが受け付けるパスワードの最大バイト数。
// validatorのmaxは文字数で数えるため、マルチバイト文字は別途判定する。
const maxPasswordBytes = 72

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // 最終書き込みからの有効期間
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Fullname string `json:"fullname" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	hasher      PasswordHasher
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     metrics.MetricsCollector
	config      ServiceConfig
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	hasher PasswordHasher,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		hasher:      hasher,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     collector,
		config:      config,
		now:         time.Now,
	}
}

// normalizeEmail は比較用にメールアドレスの前後の空白を除去する。
// 大文字小文字の違いはリポジトリ側で吸収する。
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Register はユーザーを登録する。ログインはしない。
// メールアドレスが登録済みの場合は DuplicateUser エラーを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Fullname = strings.TrimSpace(input.Fullname)
	input.Email = normalizeEmail(input.Email)

	if err := validation.Struct(input); err != nil {
		return nil, model.NewValidationError(err.Error())
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, model.NewValidationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUserError()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Fullname:     input.Fullname,
		Email:        input.Email,
		PasswordHash: hash,
		Books:        []model.BookSnapshot{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 事前確認をすり抜けた同時登録は一意インデックスでDuplicateUserになる
	if err := s.userRepo.Create(ctx, user); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordRegistration()
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login はメールアドレスとパスワードを照合し、認証済みセッションを発行する。
// ユーザー不在とパスワード不一致はどちらも同じ InvalidCredentials エラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		// ユーザー不在でも照合を1回行い、応答時間の差を小さくする
		s.hasher.Verify(password, s.placeholderHash())
		s.metrics.RecordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLogin(false)
		slog.Warn("login failed", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.newSession(user.Snapshot())
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.metrics.RecordLogin(true)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// Logout はセッションを破棄する。空のIDや存在しないセッションはエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("session destroyed")
	return nil
}

// ResolveSession は有効なセッションを返す。存在しないか期限切れの場合はnilを返す。
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// CurrentUser はセッションのログイン時点のユーザー情報を返す。
// 未ログイン、匿名、期限切れのセッションではnilを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.UserSnapshot, error) {
	session, err := s.ResolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return session.AuthUser, nil
}

// RequireAuth はログイン済みユーザーを返す。未ログインの場合は Unauthorized エラーを返す。
func (s *Service) RequireAuth(ctx context.Context, sessionID string) (*model.UserSnapshot, error) {
	user, err := s.CurrentUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// StartAnonymousSession は未ログインのセッションを発行する。
// フラッシュメッセージの保持に使う。
func (s *Service) StartAnonymousSession(ctx context.Context) (*model.Session, error) {
	session, err := s.newSession(nil)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// SaveSession はセッションの内容を保存し、有効期限を現在時刻からTTL後に延長する。
func (s *Service) SaveSession(ctx context.Context, session *model.Session) error {
	if err := s.sessionRepo.Save(ctx, session, s.now().Add(s.config.SessionTTL)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// newSession は新しいセッションIDでセッションを組み立てる。永続化はしない。
func (s *Service) newSession(authUser *model.UserSnapshot) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}
	now := s.now()
	return &model.Session{
		ID:        sessionID,
		AuthUser:  authUser,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}, nil
}

// placeholderHash はユーザー不在時の照合に使うハッシュを返す。
func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.New().String())
		if err != nil {
			slog.Warn("failed to prepare placeholder hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
