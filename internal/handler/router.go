package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newspulse/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	RequestRecorder   middleware.RequestRecorder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック・メトリクス
	DB             Pinger
	MetricsHandler http.Handler

	// 記事・速報
	ArticleService  ArticleServiceInterface
	BreakingService BreakingServiceInterface
	BreakingLimit   int

	// おすすめ・嗜好
	RecommendationService RecommendationServiceInterface
	PreferenceService     PreferenceServiceInterface
	ArticleLookup         ArticleLookup
	Invalidator           RecommendationInvalidator

	// ジョブ
	Monitor      MonitorRunner
	Tagger       TaggingRunner
	Translation  TranslationRunner
	Developments DevelopmentRunner
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → ClientID → RateLimit(General)
//
// /health と /metrics はクライアントIDとレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.RequestRecorder))

	articleHandler := NewArticleHandler(deps.ArticleService)
	breakingHandler := NewBreakingHandler(deps.BreakingService, deps.BreakingLimit)
	recHandler := NewRecommendationHandler(deps.RecommendationService)
	prefHandler := NewPreferenceHandler(deps.PreferenceService, deps.ArticleLookup, deps.Invalidator)
	jobHandler := NewJobHandler(deps.Monitor, deps.Tagger, deps.Translation, deps.Developments)

	// --- 運用系のルート ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: ClientID → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewClientIDMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/articles", articleHandler.ListArticles)
		r.Get("/api/breaking", breakingHandler.ListBreaking)

		// クライアント単位の機能
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireClientID())

			r.Get("/api/recommendations", recHandler.GetRecommendations)

			r.Route("/api/preferences", func(r chi.Router) {
				r.Get("/", prefHandler.ListPreferences)
				r.Post("/", prefHandler.AddPreference)
				r.Delete("/", prefHandler.ClearPreferences)
				r.Delete("/{articleID}", prefHandler.RemovePreference)
			})
		})

		// ジョブの手動トリガー（ジョブ用のレート制限を追加）
		r.Route("/api/jobs", func(r chi.Router) {
			r.Use(deps.RateLimiter.JobMiddleware())

			r.Post("/breaking-monitor", jobHandler.RunBreakingMonitor)
			r.Post("/tag", jobHandler.RunTagging)
			r.Post("/translate", jobHandler.RunTranslation)
			r.Post("/developments", jobHandler.RunDevelopments)
		})
	})

	return r
}
