// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/filmorate/internal/catalog"
	"github.com/hitoshi/filmorate/internal/config"
	"github.com/hitoshi/filmorate/internal/database"
	"github.com/hitoshi/filmorate/internal/director"
	"github.com/hitoshi/filmorate/internal/film"
	"github.com/hitoshi/filmorate/internal/handler"
	"github.com/hitoshi/filmorate/internal/logger"
	"github.com/hitoshi/filmorate/internal/metrics"
	"github.com/hitoshi/filmorate/internal/middleware"
	"github.com/hitoshi/filmorate/internal/repository"
	"github.com/hitoshi/filmorate/internal/review"
	"github.com/hitoshi/filmorate/internal/security"
	"github.com/hitoshi/filmorate/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

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
		slog.String("storage_backend", cfg.StorageBackend),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// repositories はストレージバックエンドごとに構築されるリポジトリの束。
// dbはPostgreSQLバックエンドの場合のみ非nil。
type repositories struct {
	db *sql.DB

	userRepo     repository.UserRepository
	filmRepo     repository.FilmRepository
	directorRepo repository.DirectorRepository
	genreRepo    repository.GenreRepository
	mpaRepo      repository.MPARepository
	reviewRepo   repository.ReviewRepository
	eventRepo    repository.EventRepository
}

// buildRepositories は設定に応じたストレージバックエンドのリポジトリを構築する。
func buildRepositories(cfg *config.Config) (*repositories, error) {
	if cfg.StorageBackend == config.StorageMemory {
		slog.Info("using in-memory storage backend")
		store := repository.NewMemoryStore()
		return &repositories{
			userRepo:     repository.NewMemoryUserRepo(store),
			filmRepo:     repository.NewMemoryFilmRepo(store),
			directorRepo: repository.NewMemoryDirectorRepo(store),
			genreRepo:    repository.NewMemoryGenreRepo(store),
			mpaRepo:      repository.NewMemoryMPARepo(store),
			reviewRepo:   repository.NewMemoryReviewRepo(store),
			eventRepo:    repository.NewMemoryEventRepo(store),
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	return &repositories{
		db:           db,
		userRepo:     repository.NewPostgresUserRepo(db),
		filmRepo:     repository.NewPostgresFilmRepo(db),
		directorRepo: repository.NewPostgresDirectorRepo(db),
		genreRepo:    repository.NewPostgresGenreRepo(db),
		mpaRepo:      repository.NewPostgresMPARepo(db),
		reviewRepo:   repository.NewPostgresReviewRepo(db),
		eventRepo:    repository.NewPostgresEventRepo(db),
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// ストレージバックエンドを構築し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. リポジトリの初期化
	repos, err := buildRepositories(cfg)
	if err != nil {
		return err
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// フィードイベントの記録をメトリクスとしてカウントする
	eventRepo := metrics.NewInstrumentedEventRepo(repos.eventRepo, collector)

	// 3. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()

	userService := user.NewService(repos.userRepo, repos.filmRepo, eventRepo)
	filmService := film.NewService(repos.filmRepo, repos.userRepo, repos.genreRepo, repos.mpaRepo, repos.directorRepo, eventRepo)
	reviewService := review.NewService(repos.reviewRepo, repos.userRepo, repos.filmRepo, eventRepo, sanitizer)
	directorService := director.NewService(repos.directorRepo)
	catalogService := catalog.NewService(repos.genreRepo, repos.mpaRepo)

	// 4. レート制限の初期化（configはreq/min単位なのでreq/secに変換する）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.MutationRate = rate.Limit(float64(cfg.RateLimitMutation) / 60.0)
	rateLimiterCfg.MutationBurst = cfg.RateLimitMutation
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 5. ルーターの構築
	var pinger handler.Pinger
	if repos.db != nil {
		pinger = repos.db
	}

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		MetricsCollector: collector,
		MetricsGatherer:  registry,

		DBPinger: pinger,

		UserService:     userService,
		FilmService:     filmService,
		ReviewService:   reviewService,
		DirectorService: directorService,
		CatalogService:  catalogService,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.StorageBackend == config.StorageMemory {
		slog.Info("in-memory storage backend selected, skipping migrations")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
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
