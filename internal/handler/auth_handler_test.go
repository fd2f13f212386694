package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/hitoshi/bookshelf/internal/auth"
	"github.com/hitoshi/bookshelf/internal/model"
)

func TestRegister_Success_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/users/register", "", "fullname=Ann&email=a%40x.com&password=pw123")

	assertRedirect(t, w, "/api/users/login")
	if len(env.auth.registered) != 1 {
		t.Fatalf("Register called %d times, want 1", len(env.auth.registered))
	}
	got := env.auth.registered[0]
	if got.Fullname != "Ann" || got.Email != "a@x.com" || got.Password != "pw123" {
		t.Errorf("input = %+v", got)
	}
	if len(env.cookies.written) != 0 {
		t.Error("registration must not log the user in")
	}
}

func TestRegister_Duplicate_FlashesAndRedirectsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	env.auth.registerFn = func(context.Context, auth.RegisterInput) (*model.User, error) {
		return nil, model.NewDuplicateUserError()
	}

	w := env.do(http.MethodPost, "/api/users/register", "", "fullname=Ann&email=a%40x.com&password=pw")

	assertRedirect(t, w, "/api/users/register")
	if len(env.flasher.added) != 1 || env.flasher.added[0] != "User existed" {
		t.Errorf("flash = %v, want [User existed]", env.flasher.added)
	}
}

func TestRegister_InternalError_ReturnsJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	env.auth.registerFn = func(context.Context, auth.RegisterInput) (*model.User, error) {
		return nil, errors.New("failed to create user: connection reset")
	}

	w := env.do(http.MethodPost, "/api/users/register", "", "fullname=Ann&email=a%40x.com&password=pw")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeError(t, w); body.Message != "failed to create user: connection reset" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRegisterForm_ShowsPendingFlash(t *testing.T) {
	env := newTestEnv(t, nil)
	env.flasher.pending = []string{"User existed"}

	w := env.do(http.MethodGet, "/api/users/register", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if env.renderer.name != "register" {
		t.Errorf("rendered %q, want register", env.renderer.name)
	}
	if len(env.renderer.data.Errors) != 1 || env.renderer.data.Errors[0] != "User existed" {
		t.Errorf("Errors = %v", env.renderer.data.Errors)
	}
}

func TestLogin_Success_SetsCookieAndRedirectsToProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	env.auth.loginFn = func(_ context.Context, email, password string) (*model.Session, error) {
		if email != "a@x.com" || password != "pw123" {
			t.Errorf("Login(%q, %q)", email, password)
		}
		return &model.Session{ID: "new-session", AuthUser: testUser}, nil
	}

	w := env.do(http.MethodPost, "/api/users/login", "anon", "email=a%40x.com&password=pw123")

	assertRedirect(t, w, "/api/users/profile/u-1")
	if len(env.cookies.written) != 1 || env.cookies.written[0] != "new-session" {
		t.Errorf("cookie writes = %v, want [new-session]", env.cookies.written)
	}
	if len(env.auth.loggedOut) != 1 || env.auth.loggedOut[0] != "anon" {
		t.Errorf("prior session should be destroyed, got %v", env.auth.loggedOut)
	}
}

func TestLogin_InvalidCredentials_Flashes(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/users/login", "", "email=a%40x.com&password=wrong")

	assertRedirect(t, w, "/api/users/login")
	if len(env.flasher.added) != 1 || env.flasher.added[0] != "Invalid user or password" {
		t.Errorf("flash = %v", env.flasher.added)
	}
	if len(env.cookies.written) != 0 {
		t.Error("failed login must not set a cookie")
	}
}

func TestLogout_DestroysSessionAndRendersLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/users/logout", "valid", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(env.auth.loggedOut) != 1 || env.auth.loggedOut[0] != "valid" {
		t.Errorf("Logout calls = %v, want [valid]", env.auth.loggedOut)
	}
	if !env.cookies.cleared {
		t.Error("cookie should be cleared")
	}
	if env.renderer.name != "login" {
		t.Errorf("rendered %q, want login", env.renderer.name)
	}
	if env.renderer.data.AuthUser != nil {
		t.Error("login page after logout must not show the old user")
	}
}
