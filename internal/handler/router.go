package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/filmorate/internal/metrics"
	"github.com/hitoshi/filmorate/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer

	// ヘルスチェック（インメモリバックエンドの場合はnil）
	DBPinger Pinger

	// ドメインサービス
	UserService     UserServiceInterface
	FilmService     FilmServiceInterface
	ReviewService   ReviewServiceInterface
	DirectorService DirectorServiceInterface
	CatalogService  CatalogServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(General)
//
// 書き込み系エンドポイントにはMutationレート制限を追加適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsCollector != nil {
		r.Use(metrics.Middleware(deps.MetricsCollector))
	}

	userHandler := NewUserHandler(deps.UserService)
	filmHandler := NewFilmHandler(deps.FilmService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	directorHandler := NewDirectorHandler(deps.DirectorService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	healthHandler := NewHealthHandler(deps.DBPinger)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/health", healthHandler.Check)
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- APIエンドポイント ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		mutation := deps.RateLimiter.MutationMiddleware()

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.With(mutation).Post("/", userHandler.CreateUser)
			r.With(mutation).Put("/", userHandler.UpdateUser)
			r.Get("/", userHandler.ListUsers)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.With(mutation).Delete("/", userHandler.DeleteUser)

				r.With(mutation).Put("/friends/{friendId}", userHandler.AddFriend)
				r.With(mutation).Delete("/friends/{friendId}", userHandler.DeleteFriend)
				r.Get("/friends", userHandler.ListFriends)
				r.Get("/friends/common/{otherId}", userHandler.ListCommonFriends)

				r.Get("/feed", userHandler.GetFeed)
				r.Get("/recommendations", userHandler.GetRecommendations)
			})
		})

		// 映画管理
		r.Route("/films", func(r chi.Router) {
			r.With(mutation).Post("/", filmHandler.CreateFilm)
			r.With(mutation).Put("/", filmHandler.UpdateFilm)
			r.Get("/", filmHandler.ListFilms)

			r.Get("/popular", filmHandler.ListTop)
			r.Get("/common", filmHandler.ListCommon)
			r.Get("/search", filmHandler.Search)
			r.Get("/director/{directorId}", filmHandler.ListByDirector)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", filmHandler.GetFilm)
				r.With(mutation).Delete("/", filmHandler.DeleteFilm)

				r.With(mutation).Put("/like/{userId}", filmHandler.AddLike)
				r.With(mutation).Delete("/like/{userId}", filmHandler.DeleteLike)
			})
		})

		// レビュー管理
		r.Route("/reviews", func(r chi.Router) {
			r.With(mutation).Post("/", reviewHandler.CreateReview)
			r.With(mutation).Put("/", reviewHandler.UpdateReview)
			r.Get("/", reviewHandler.ListReviews)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reviewHandler.GetReview)
				r.With(mutation).Delete("/", reviewHandler.DeleteReview)

				r.With(mutation).Put("/like/{userId}", reviewHandler.AddLike)
				r.With(mutation).Delete("/like/{userId}", reviewHandler.DeleteLike)
				r.With(mutation).Put("/dislike/{userId}", reviewHandler.AddDislike)
				r.With(mutation).Delete("/dislike/{userId}", reviewHandler.DeleteDislike)
			})
		})

		// 監督管理
		r.Route("/directors", func(r chi.Router) {
			r.With(mutation).Post("/", directorHandler.CreateDirector)
			r.With(mutation).Put("/", directorHandler.UpdateDirector)
			r.Get("/", directorHandler.ListDirectors)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", directorHandler.GetDirector)
				r.With(mutation).Delete("/", directorHandler.DeleteDirector)
			})
		})

		// 参照データ
		r.Route("/genres", func(r chi.Router) {
			r.Get("/", catalogHandler.ListGenres)
			r.Get("/{id}", catalogHandler.GetGenre)
		})
		r.Route("/mpa", func(r chi.Router) {
			r.Get("/", catalogHandler.ListMPA)
			r.Get("/{id}", catalogHandler.GetMPA)
		})
	})

	return r
}
