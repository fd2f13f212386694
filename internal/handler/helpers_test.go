package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/bookshelf/internal/auth"
	"github.com/hitoshi/bookshelf/internal/book"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/view"
)

// --- モック ---

type mockAuthService struct {
	registerFn func(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*model.Session, error)
	logoutFn   func(ctx context.Context, sessionID string) error
	loggedOut  []string
	registered []auth.RegisterInput
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	m.registered = append(m.registered, input)
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return &model.User{ID: "u-1", Fullname: input.Fullname, Email: input.Email}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	m.loggedOut = append(m.loggedOut, sessionID)
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockUserService struct {
	listFn    func(ctx context.Context) ([]*model.User, error)
	getFn     func(ctx context.Context, id string) (*model.User, error)
	profileFn func(ctx context.Context, viewer *model.UserSnapshot, id string) (*model.User, error)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewUserNotFoundError(id)
}

func (m *mockUserService) Profile(ctx context.Context, viewer *model.UserSnapshot, id string) (*model.User, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, viewer, id)
	}
	if viewer == nil {
		return nil, model.NewAccessDeniedError()
	}
	return &model.User{ID: id, Fullname: viewer.Fullname}, nil
}

func (m *mockUserService) Update(_ context.Context, _ string) string {
	return "update a user endpoint"
}

type mockBookService struct {
	listFn   func(ctx context.Context) ([]model.BookWithOwner, error)
	createFn func(ctx context.Context, actor *model.UserSnapshot, input book.BookInput) (*model.Book, error)
	getFn    func(ctx context.Context, id string) (*model.Book, error)
	updateFn func(ctx context.Context, actor *model.UserSnapshot, id string, update book.BookUpdate) (*model.Book, error)
	deleteFn func(ctx context.Context, actor *model.UserSnapshot, id string) error
}

func (m *mockBookService) ListAll(ctx context.Context) ([]model.BookWithOwner, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockBookService) Create(ctx context.Context, actor *model.UserSnapshot, input book.BookInput) (*model.Book, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, input)
	}
	if actor == nil {
		return nil, model.NewUnauthorizedError()
	}
	return &model.Book{ID: "b-1", Title: input.Title, CreatedBy: actor.ID}, nil
}

func (m *mockBookService) GetByID(ctx context.Context, id string) (*model.Book, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewBookNotFoundError(id)
}

func (m *mockBookService) Update(ctx context.Context, actor *model.UserSnapshot, id string, update book.BookUpdate) (*model.Book, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, actor, id, update)
	}
	return &model.Book{ID: id}, nil
}

func (m *mockBookService) DeleteByID(ctx context.Context, actor *model.UserSnapshot, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actor, id)
	}
	return nil
}

// fakeRenderer は描画されたページを記録し、ページ名を本文に書く。
type fakeRenderer struct {
	name string
	data view.PageData
}

func (f *fakeRenderer) Render(w http.ResponseWriter, status int, name string, data view.PageData) error {
	f.name = name
	f.data = data
	w.WriteHeader(status)
	_, err := w.Write([]byte("page:" + name))
	return err
}

// fakeFlasher は保留中メッセージと追加されたメッセージを保持する。
type fakeFlasher struct {
	pending []string
	added   []string
}

func (f *fakeFlasher) Add(_ http.ResponseWriter, _ *http.Request, message string) error {
	f.added = append(f.added, message)
	return nil
}

func (f *fakeFlasher) Pop(_ *http.Request) []string {
	msgs := f.pending
	f.pending = nil
	return msgs
}

// fakeCookies はtest_session Cookieの値をそのままセッションIDとして扱う。
type fakeCookies struct {
	written []string
	cleared bool
}

func (f *fakeCookies) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie("test_session")
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (f *fakeCookies) Write(_ http.ResponseWriter, sessionID string) error {
	f.written = append(f.written, sessionID)
	return nil
}

func (f *fakeCookies) Clear(_ http.ResponseWriter) {
	f.cleared = true
}

// fakeResolver は登録済みのセッションだけを解決する。
type fakeResolver struct {
	sessions map[string]*model.Session
}

func (f *fakeResolver) ResolveSession(_ context.Context, id string) (*model.Session, error) {
	return f.sessions[id], nil
}

var (
	_ AuthServiceInterface       = (*mockAuthService)(nil)
	_ UserServiceInterface       = (*mockUserService)(nil)
	_ BookServiceInterface       = (*mockBookService)(nil)
	_ view.Renderer              = (*fakeRenderer)(nil)
	_ Flasher                    = (*fakeFlasher)(nil)
	_ SessionCookieManager       = (*fakeCookies)(nil)
	_ middleware.SessionResolver = (*fakeResolver)(nil)
)

// --- テスト用ルーター ---

type testEnv struct {
	auth     *mockAuthService
	users    *mockUserService
	books    *mockBookService
	renderer *fakeRenderer
	flasher  *fakeFlasher
	cookies  *fakeCookies
	router   http.Handler
}

var testUser = &model.UserSnapshot{ID: "u-1", Fullname: "Ann", Email: "a@x.com"}

func newTestEnv(t *testing.T, configure func(*RouterDeps)) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:     &mockAuthService{},
		users:    &mockUserService{},
		books:    &mockBookService{},
		renderer: &fakeRenderer{},
		flasher:  &fakeFlasher{},
		cookies:  &fakeCookies{},
	}
	deps := &RouterDeps{
		SessionResolver: &fakeResolver{sessions: map[string]*model.Session{
			"valid": {ID: "valid", AuthUser: testUser},
			"anon":  {ID: "anon"},
		}},
		Cookies:           env.cookies,
		ErrorStackEnabled: true,
		Renderer:          env.renderer,
		Flasher:           env.flasher,
		AuthService:       env.auth,
		UserService:       env.users,
		BookService:       env.books,
	}
	if configure != nil {
		configure(deps)
	}
	env.router = NewRouter(deps)
	return env
}

// do はリクエストを送る。sessionIDが空でなければtest_session Cookieを付ける。
func (env *testEnv) do(method, target, sessionID string, form string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "test_session", Value: sessionID})
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302; body: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
