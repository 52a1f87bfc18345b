package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backends
	UserServiceURL string
	TaskServiceURL string
	BackendTimeout time.Duration

	// Token
	SecretKey                string
	Algorithm                string
	AccessTokenExpireMinutes int

	// Mail
	Mail MailConfig

	// Notification
	NotifyHour          int
	NotifyMinute        int
	Timezone            string
	NotifyMaxConcurrent int
	NotifyPassTimeout   time.Duration

	// Rate Limit
	RateLimitGeneral int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Tracing
	OTLPEndpoint string // 空の場合はトレースを送信しない
	OTLPInsecure bool
}

// MailConfig はSMTP送信の設定を保持する。
type MailConfig struct {
	Username      string
	Password      string
	From          string
	Server        string
	Port          int
	StartTLS      bool
	SSLTLS        bool
	ValidateCerts bool
}

// Enabled はSMTPサーバーが設定されているかを返す。
func (m MailConfig) Enabled() bool {
	return m.Server != ""
}

// AccessTokenTTL はアクセストークンの有効期間を返す。
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Location は通知スケジュールのタイムゾーンを返す。
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに .env があれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv は現在の環境変数のみからConfigを組み立てる。
func FromEnv() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.UserServiceURL = strings.TrimRight(os.Getenv("USER_SERVICE_URL"), "/")
	if cfg.UserServiceURL == "" {
		missing = append(missing, "USER_SERVICE_URL")
	}

	cfg.TaskServiceURL = strings.TrimRight(os.Getenv("TASK_SERVICE_URL"), "/")
	if cfg.TaskServiceURL == "" {
		missing = append(missing, "TASK_SERVICE_URL")
	}

	cfg.SecretKey = os.Getenv("SECRET_KEY")
	if cfg.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Algorithm = strings.ToUpper(strings.TrimSpace(getEnvString("ALGORITHM", "HS256")))
	cfg.AccessTokenExpireMinutes = getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	cfg.BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second)

	cfg.Mail = MailConfig{
		Username:      getEnvString("MAIL_USERNAME", ""),
		Password:      getEnvString("MAIL_PASSWORD", ""),
		From:          getEnvString("MAIL_FROM", ""),
		Server:        getEnvString("MAIL_SERVER", ""),
		Port:          getEnvInt("MAIL_PORT", 587),
		StartTLS:      getEnvBool("MAIL_STARTTLS", true),
		SSLTLS:        getEnvBool("MAIL_SSL_TLS", false),
		ValidateCerts: getEnvBool("VALIDATE_CERTS", true),
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	cfg.NotifyHour = getEnvInt("NOTIFY_HOUR", 9)
	cfg.NotifyMinute = getEnvInt("NOTIFY_MINUTE", 0)
	cfg.Timezone = getEnvString("TIMEZONE", "Europe/Moscow")
	cfg.NotifyMaxConcurrent = getEnvInt("NOTIFY_MAX_CONCURRENT", 5)
	cfg.NotifyPassTimeout = getEnvDuration("NOTIFY_PASS_TIMEOUT", 0)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.OTLPEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.OTLPInsecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.Algorithm, "HS") {
		return fmt.Errorf("ALGORITHM must be an HMAC algorithm (HS256/HS384/HS512), got %q", c.Algorithm)
	}
	if c.NotifyHour < 0 || c.NotifyHour > 23 {
		return fmt.Errorf("NOTIFY_HOUR must be between 0 and 23, got %d", c.NotifyHour)
	}
	if c.NotifyMinute < 0 || c.NotifyMinute > 59 {
		return fmt.Errorf("NOTIFY_MINUTE must be between 0 and 59, got %d", c.NotifyMinute)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
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
