// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SessionStore はセッションの保存先バックエンド。
type SessionStore string

const (
	SessionStorePostgres SessionStore = "postgres"
	SessionStoreRedis    SessionStore = "redis"
)

// BookMutationPolicy は書籍の更新・削除に対する認可ポリシー。
type BookMutationPolicy string

const (
	// BookMutationOpen は誰でも任意の書籍を更新・削除できる（従来の挙動）。
	BookMutationOpen BookMutationPolicy = "open"
	// BookMutationOwner は作成者本人のセッションのみ更新・削除できる。
	BookMutationOwner BookMutationPolicy = "owner"
)

// minSessionSecretLength はセッションCookie署名鍵の最小バイト長。
const minSessionSecretLength = 16

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string
	AutoMigrate bool

	// Session
	SessionSecret          string
	SessionTTL             time.Duration
	SessionStore           SessionStore
	RedisURL               string
	SessionCleanupInterval time.Duration

	// Auth
	BcryptCost         int
	BookMutationPolicy BookMutationPolicy

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Errors / Logging
	ErrorStackEnabled bool
	LogLevel          slog.Level
}

// Load は環境変数からConfigを読み込む。
// ENV_FILE（デフォルト .env）が存在すればその内容を環境変数として取り込む。
// 既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	loadEnvFile(getEnvString("ENV_FILE", ".env"))

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if len(cfg.SessionSecret) < minSessionSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLength)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", getEnvString("PORT", "7000"))
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.AutoMigrate = getEnvBool("AUTO_MIGRATE", false)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", time.Hour)
	cfg.SessionStore = SessionStore(strings.ToLower(getEnvString("SESSION_STORE", string(SessionStorePostgres))))
	cfg.RedisURL = getEnvString("REDIS_URL", "redis://127.0.0.1:6379/0")
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.BookMutationPolicy = BookMutationPolicy(strings.ToLower(getEnvString("BOOK_MUTATION_POLICY", string(BookMutationOpen))))
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")
	cfg.ErrorStackEnabled = getEnvBool("ERROR_STACK_ENABLED", true)
	cfg.LogLevel = getEnvLogLevel("LOG_LEVEL", slog.LevelInfo)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は列挙値を取る設定の妥当性を検証する。
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStorePostgres, SessionStoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStorePostgres, SessionStoreRedis, c.SessionStore)
	}

	switch c.BookMutationPolicy {
	case BookMutationOpen, BookMutationOwner:
	default:
		return fmt.Errorf("BOOK_MUTATION_POLICY must be %q or %q, got %q", BookMutationOpen, BookMutationOwner, c.BookMutationPolicy)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	return nil
}

// loadEnvFile は.envファイルを読み込む。ファイルが存在しない場合は何もしない。
func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("failed to load env file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvLogLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
