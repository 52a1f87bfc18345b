package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kainbear/interface-service/internal/auth"
	"github.com/kainbear/interface-service/internal/backend"
	"github.com/kainbear/interface-service/internal/config"
	"github.com/kainbear/interface-service/internal/gateway"
	"github.com/kainbear/interface-service/internal/graph"
	"github.com/kainbear/interface-service/internal/handler"
	"github.com/kainbear/interface-service/internal/logger"
	"github.com/kainbear/interface-service/internal/mail"
	"github.com/kainbear/interface-service/internal/metrics"
	"github.com/kainbear/interface-service/internal/middleware"
	"github.com/kainbear/interface-service/internal/notify"
	"github.com/kainbear/interface-service/internal/security"
	"github.com/kainbear/interface-service/internal/telemetry"
)

// serviceName はトレースとログに使うサービス名。
const serviceName = "interface-service"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数（および .env）からConfigを読み込む。
// 読み込んだLOG_LEVELでログレベルを設定し直す。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("user_service_url", cfg.UserServiceURL),
		slog.String("task_service_url", cfg.TaskServiceURL),
	)

	switch cmd {
	case CommandNotify:
		return runNotify(cfg)
	case CommandToken:
		return runToken(cfg, w, args[1:])
	default:
		return runServe(cfg)
	}
}

// components はサーバーと通知コマンドで共有する依存関係。
type components struct {
	registry  *prometheus.Registry
	identity  *backend.IdentityClient
	tasks     *backend.TaskClient
	gateway   *gateway.Service
	validator *auth.Validator
	scheduler *notify.Scheduler
}

// wire は設定から全依存関係を構築する。
// 両バックエンドのクライアントは1つの接続プールを共有する。
func wire(cfg *config.Config, log *slog.Logger) (*components, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. バックエンドクライアント
	httpClient := backend.NewHTTPClient(cfg.BackendTimeout)
	identity := backend.NewIdentityClient(cfg.UserServiceURL, httpClient, log, collector)
	tasks := backend.NewTaskClient(cfg.TaskServiceURL, httpClient, log, collector)

	// 3. 認証ゲート
	validator := auth.NewValidator(auth.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		TTL:       cfg.AccessTokenTTL(),
	}, identity, log)

	// 4. メール送信
	var transport mail.Transport = mail.DisabledTransport{}
	if cfg.Mail.Enabled() {
		client, err := mail.NewClient(cfg.Mail)
		if err != nil {
			return nil, fmt.Errorf("failed to configure mail: %w", err)
		}
		transport = client
	} else {
		log.Warn("MAIL_SERVER が未設定のため期限通知メールは送信されません")
	}
	dispatcher := mail.NewDispatcher(transport, cfg.Mail.From, security.NewMailSanitizer(), log, collector)

	// 5. 期限通知
	pipeline := notify.NewPipeline(tasks, identity, dispatcher, log, collector, cfg.NotifyMaxConcurrent)
	scheduler := notify.NewScheduler(pipeline, loc, cfg.NotifyHour, cfg.NotifyMinute, cfg.NotifyPassTimeout, log)

	return &components{
		registry:  registry,
		identity:  identity,
		tasks:     tasks,
		gateway:   gateway.NewService(identity, tasks, log),
		validator: validator,
		scheduler: scheduler,
	}, nil
}

// runServe はゲートウェイサーバーとして起動する。
// 通知スケジューラを登録し、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	log := slog.Default()

	shutdownTelemetry, err := telemetry.Setup(context.Background(), serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure, log)
	if err != nil {
		log.Warn("トレース送信を無効化しました", slog.String("error", err.Error()))
	}

	c, err := wire(cfg, log)
	if err != nil {
		return err
	}

	schema, err := graph.NewSchema(c.gateway)
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral), log)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Authenticator:     c.validator,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            log,
		Accounts:          c.gateway,
		Notifier:          c.scheduler,
		Employees:         c.gateway,
		Tasks:             c.gateway,
		GraphQL:           graph.NewHandler(schema, log),
		Metrics:           metrics.Handler(c.registry),
	})

	if err := c.scheduler.Start(); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		log.Info("shutting down API server...")
	case err := <-serverErr:
		c.scheduler.Stop(context.Background())
		return fmt.Errorf("server listen error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := c.scheduler.Stop(ctx); err != nil {
		log.Warn("実行中の期限通知の完了を待てませんでした", slog.String("error", err.Error()))
	}
	if err := shutdownTelemetry(ctx); err != nil {
		log.Warn("トレースのフラッシュに失敗しました", slog.String("error", err.Error()))
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runNotify は期限通知を1回実行し、結果をログに出力して終了する。
func runNotify(cfg *config.Config) error {
	log := slog.Default()

	c, err := wire(cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cfg.NotifyPassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.NotifyPassTimeout)
		defer cancel()
	}

	report, err := c.scheduler.Run(ctx)
	if err != nil {
		return fmt.Errorf("notification failed: %w", err)
	}

	log.Info("notification finished",
		slog.String("pass_id", report.PassID),
		slog.Int("tasks", len(report.Items)),
		slog.Int("sent", report.Count(notify.OutcomeSent)),
	)
	return nil
}

// runToken は指定したログイン名のアクセストークンを発行し、JSONで書き出す。
// 運用時の動作確認用。
func runToken(cfg *config.Config, w io.Writer, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return errors.New("usage: interface-service token <login>")
	}

	issuer, err := auth.NewIssuer(auth.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		TTL:       cfg.AccessTokenTTL(),
	})
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	tok, err := issuer.Issue(args[0])
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	return json.NewEncoder(w).Encode(tok)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
