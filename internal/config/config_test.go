package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("USER_SERVICE_URL", "http://user-service:8000/")
	t.Setenv("TASK_SERVICE_URL", "http://task-service:8001")
	t.Setenv("SECRET_KEY", "test-secret")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.UserServiceURL != "http://user-service:8000" {
		t.Errorf("UserServiceURL = %q, want trailing slash trimmed", cfg.UserServiceURL)
	}
	if cfg.TaskServiceURL != "http://task-service:8001" {
		t.Errorf("TaskServiceURL = %q, want %q", cfg.TaskServiceURL, "http://task-service:8001")
	}
	if cfg.SecretKey != "test-secret" {
		t.Errorf("SecretKey = %q, want %q", cfg.SecretKey, "test-secret")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Algorithm != "HS256" {
		t.Errorf("Algorithm = %q, want %q", cfg.Algorithm, "HS256")
	}
	if cfg.AccessTokenTTL() != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL(), 30*time.Minute)
	}
	if cfg.NotifyHour != 9 || cfg.NotifyMinute != 0 {
		t.Errorf("notify time = %02d:%02d, want 09:00", cfg.NotifyHour, cfg.NotifyMinute)
	}
	if cfg.Timezone != "Europe/Moscow" {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, "Europe/Moscow")
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v, want %v", cfg.BackendTimeout, 10*time.Second)
	}
	if cfg.NotifyPassTimeout != 0 {
		t.Errorf("NotifyPassTimeout = %v, want 0", cfg.NotifyPassTimeout)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.Mail.Port != 587 || !cfg.Mail.StartTLS || cfg.Mail.SSLTLS || !cfg.Mail.ValidateCerts {
		t.Errorf("Mail defaults = %+v", cfg.Mail)
	}
	if cfg.Mail.Enabled() {
		t.Error("MAIL_SERVER 未設定なのにEnabled()がtrue")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("MAIL_SERVER", "smtp.example.com")
	t.Setenv("MAIL_USERNAME", "bot@example.com")
	t.Setenv("MAIL_PORT", "465")
	t.Setenv("MAIL_SSL_TLS", "true")
	t.Setenv("MAIL_STARTTLS", "false")
	t.Setenv("NOTIFY_HOUR", "18")
	t.Setenv("NOTIFY_PASS_TIMEOUT", "2m")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AccessTokenTTL() != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL(), 5*time.Minute)
	}
	if !cfg.Mail.Enabled() || cfg.Mail.Port != 465 || !cfg.Mail.SSLTLS || cfg.Mail.StartTLS {
		t.Errorf("Mail = %+v", cfg.Mail)
	}
	if cfg.Mail.From != "bot@example.com" {
		t.Errorf("Mail.From = %q, want fallback to username", cfg.Mail.From)
	}
	if cfg.NotifyHour != 18 {
		t.Errorf("NotifyHour = %d, want 18", cfg.NotifyHour)
	}
	if cfg.NotifyPassTimeout != 2*time.Minute {
		t.Errorf("NotifyPassTimeout = %v, want 2m", cfg.NotifyPassTimeout)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	t.Setenv("USER_SERVICE_URL", "")
	t.Setenv("TASK_SERVICE_URL", "")
	t.Setenv("SECRET_KEY", "")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error for missing required vars")
	}
	for _, key := range []string{"USER_SERVICE_URL", "TASK_SERVICE_URL", "SECRET_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err.Error(), key)
		}
	}
}

func TestLoad_RejectsNonHMACAlgorithm(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ALGORITHM", "RS256")

	if _, err := FromEnv(); err == nil {
		t.Error("RS256 でエラーが返されなかった")
	}
}

func TestLoad_NormalizesAlgorithmCase(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ALGORITHM", " hs384 ")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("小文字のHMACアルゴリズムが拒否された: %v", err)
	}
	if cfg.Algorithm != "HS384" {
		t.Errorf("Algorithm = %q, want %q", cfg.Algorithm, "HS384")
	}
}

func TestLoad_RejectsInvalidSchedule(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("NOTIFY_HOUR", "24")

	if _, err := FromEnv(); err == nil {
		t.Error("NOTIFY_HOUR=24 でエラーが返されなかった")
	}
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := FromEnv(); err == nil {
		t.Error("不正なタイムゾーンでエラーが返されなかった")
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	content := "USER_SERVICE_URL=http://dotenv-user:8000\nTASK_SERVICE_URL=http://dotenv-task:8001\nSECRET_KEY=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)
	// t.Setenv で後始末を登録してから未設定状態にする
	t.Setenv("USER_SERVICE_URL", "")
	t.Setenv("TASK_SERVICE_URL", "")
	os.Unsetenv("USER_SERVICE_URL")
	os.Unsetenv("TASK_SERVICE_URL")
	// 既存の環境変数は .env より優先される
	t.Setenv("SECRET_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.UserServiceURL != "http://dotenv-user:8000" {
		t.Errorf("UserServiceURL = %q, want value from .env", cfg.UserServiceURL)
	}
	if cfg.SecretKey != "from-env" {
		t.Errorf("SecretKey = %q, want %q", cfg.SecretKey, "from-env")
	}
}
