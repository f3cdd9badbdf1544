// Package app はサブコマンドごとの起動処理と依存関係の組み立てを提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/newspulse/internal/config"
	"github.com/hitoshi/newspulse/internal/database"
	"github.com/hitoshi/newspulse/internal/logger"
	"github.com/hitoshi/newspulse/internal/metrics"
	"github.com/hitoshi/newspulse/internal/middleware"
)

// shutdownTimeout はHTTPサーバーのグレースフルシャットダウンの上限時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

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
	log := slog.Default()

	log.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg, log)
	case CommandMigrate:
		return runMigrate(cfg, log)
	default:
		return runServe(ctx, cfg, log)
	}
}

// runServe はAPIサーバーモードで起動する。
// Postgresと嗜好用SQLiteを開き、全依存関係をワイヤリングしてHTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	prefDB, err := database.OpenSQLite(cfg.PreferenceDBPath)
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	defer prefDB.Close()

	// 2. サービスとルーターの構築
	svc, err := buildServices(cfg, db, log)
	if err != nil {
		return err
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	router, err := buildRouter(cfg, db, prefDB, svc, rateLimiter, log)
	if err != nil {
		return err
	}

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serveUntilDone(ctx, server, log)
}

// runWorker はワーカーモードで起動する。
// 定期ジョブをcronで実行し、メトリクスを別ポートで公開する。
// ctxがキャンセルされると実行中のジョブの完了を待って終了する。
func runWorker(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established (worker)")

	// 2. サービスとスケジューラの構築
	svc, err := buildServices(cfg, db, log)
	if err != nil {
		return err
	}
	sched, err := buildScheduler(cfg, svc, log)
	if err != nil {
		return err
	}

	// 3. メトリクスサーバーをバックグラウンドで起動
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metrics.SetupMetricsRoute(svc.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsDone := make(chan error, 1)
	go func() { metricsDone <- serveUntilDone(ctx, metricsServer, log) }()

	log.Info("worker starting",
		slog.String("monitor_schedule", cfg.MonitorSchedule),
		slog.String("tagging_schedule", cfg.TaggingSchedule),
		slog.String("translate_schedule", cfg.TranslateSchedule),
		slog.String("expiry_schedule", cfg.ExpirySweepSchedule),
		slog.Int("max_concurrent", cfg.MonitorMaxConcurrent),
	)

	// スケジューラをメインgoroutineで実行（ブロッキング）
	if err := sched.Start(ctx); err != nil {
		return err
	}
	if err := <-metricsDone; err != nil {
		log.Error("metrics server stopped with error", slog.String("error", err.Error()))
	}

	log.Info("worker stopped gracefully")
	return nil
}

// serveUntilDone はserverを起動し、ctxがキャンセルされたらグレースフルシャットダウンする。
func serveUntilDone(ctx context.Context, server *http.Server, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server...", slog.String("addr", server.Addr))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("HTTP server stopped gracefully", slog.String("addr", server.Addr))
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config, log *slog.Logger) error {
	log.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("database migrations completed successfully")
	return nil
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
