package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	listFn     func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.User{}, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) AppendBookSnapshot(ctx context.Context, userID string, snapshot model.BookSnapshot) error {
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func annRepo() *mockUserRepo {
	return &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			if id != "user-1" {
				return nil, nil
			}
			return &model.User{ID: "user-1", Fullname: "Ann", Email: "a@x.com", CreatedAt: time.Now()}, nil
		},
	}
}

// --- テスト ---

func TestList_ReturnsAllUsers(t *testing.T) {
	repo := &mockUserRepo{
		listFn: func(context.Context) ([]*model.User, error) {
			return []*model.User{{ID: "1"}, {ID: "2"}}, nil
		},
	}
	users, err := NewService(repo).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("users = %d, want 2", len(users))
	}
}

func TestList_WrapsRepositoryError(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &mockUserRepo{listFn: func(context.Context) ([]*model.User, error) { return nil, dbErr }}

	_, err := NewService(repo).List(context.Background())
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	svc := NewService(annRepo())

	user, err := svc.GetByID(context.Background(), "user-1")
	if err != nil || user.Fullname != "Ann" {
		t.Fatalf("GetByID = %+v, %v", user, err)
	}

	_, err = svc.GetByID(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected UserNotFound, got %v", err)
	}
}

func TestProfile_RequiresViewer(t *testing.T) {
	svc := NewService(annRepo())

	_, err := svc.Profile(context.Background(), nil, "user-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Access denied" {
		t.Errorf("expected Access denied, got %v", err)
	}

	user, err := svc.Profile(context.Background(), &model.UserSnapshot{ID: "other"}, "user-1")
	if err != nil || user.ID != "user-1" {
		t.Errorf("Profile = %+v, %v", user, err)
	}
}

func TestUpdate_ReturnsPlaceholder(t *testing.T) {
	if got := NewService(annRepo()).Update(context.Background(), "user-1"); got != "update a user endpoint" {
		t.Errorf("Update = %q", got)
	}
}
