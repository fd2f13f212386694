package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/view"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	Cookies           SessionCookieManager
	CORSAllowedOrigin string
	ErrorStackEnabled bool
	Metrics           metrics.MetricsCollector
	Logger            *slog.Logger

	// 表示
	Renderer view.Renderer
	Flasher  Flasher

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface
	BookService BookServiceInterface

	// 運用
	HealthChecks   map[string]HealthCheck
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS(設定時) → Metrics → Session → Logging → BodyParser
func NewRouter(deps *RouterDeps) http.Handler {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errWriter := middleware.NewErrorWriter(deps.ErrorStackEnabled)

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(errWriter))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.CORSAllowedOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	}
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSessionMiddleware(deps.SessionResolver, deps.Cookies))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewBodyParserMiddleware(middleware.DefaultMaxBodyBytes, errWriter))

	rs := &responder{errors: errWriter, renderer: deps.Renderer, flasher: deps.Flasher}
	authHandler := NewAuthHandler(rs, deps.AuthService, deps.Cookies)
	userHandler := NewUserHandler(rs, deps.UserService)
	bookHandler := NewBookHandler(rs, deps.BookService)

	// 未定義のルートとメソッドはどちらもJSONの404
	notFound := func(w http.ResponseWriter, r *http.Request) {
		apiErr := model.NewRouteNotFoundError()
		errWriter.WriteAPIError(w, http.StatusNotFound, apiErr, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, apiErr))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	// 運用
	r.Get("/health", NewHealthHandler(deps.HealthChecks))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/", bookHandler.Index)

	// ユーザー
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", userHandler.List)
		r.Get("/register", authHandler.RegisterForm)
		r.Post("/register", authHandler.Register)
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
		r.Get("/profile/{id}", userHandler.Profile)
		r.Put("/update/{id}", userHandler.Update)
		r.Get("/{id}", userHandler.Get)
	})

	// 書籍
	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", bookHandler.AddForm)
		r.Post("/", bookHandler.Create)
		r.Get("/all", bookHandler.ListJSON)
		r.Get("/delete/{id}", bookHandler.Delete)
		r.Get("/{id}", bookHandler.EditForm)
		r.Post("/{id}", bookHandler.Update)
	})

	return r
}
