package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/newspulse/internal/breaking"
	"github.com/hitoshi/newspulse/internal/config"
	"github.com/hitoshi/newspulse/internal/development"
	"github.com/hitoshi/newspulse/internal/feed"
	"github.com/hitoshi/newspulse/internal/handler"
	"github.com/hitoshi/newspulse/internal/metrics"
	"github.com/hitoshi/newspulse/internal/middleware"
	"github.com/hitoshi/newspulse/internal/ranking"
	"github.com/hitoshi/newspulse/internal/recommend"
	"github.com/hitoshi/newspulse/internal/repository"
	"github.com/hitoshi/newspulse/internal/security"
	"github.com/hitoshi/newspulse/internal/tagging"
	"github.com/hitoshi/newspulse/internal/translate"
	"github.com/hitoshi/newspulse/internal/worker/cleanup"
	fetchpkg "github.com/hitoshi/newspulse/internal/worker/fetch"
	"github.com/hitoshi/newspulse/internal/worker/scheduler"
)

// スケジューラに登録するジョブ名。
const (
	JobBreakingMonitor = "breaking-monitor"
	JobTagging         = "tagging"
	JobTranslation     = "translation"
	JobExpirySweep     = "expiry-sweep"
)

// services はserveとworkerで共有するドメインサービス群。
type services struct {
	registry *prometheus.Registry
	metrics  *metrics.Collector

	articles     *repository.PostgresArticleRepo
	feed         *feed.Service
	breaking     *breaking.Service
	monitor      *breaking.Monitor
	tagging      *tagging.Service
	translation  *translate.Service
	developments *development.Service
	expiry       *cleanup.ExpiryJob
}

// buildServices はPostgres接続とランキング設定からドメインサービスを組み立てる。
func buildServices(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*services, error) {
	rankingFile, err := config.LoadRankingFile(cfg.RankingConfigPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// リポジトリ
	articleRepo := repository.NewPostgresArticleRepo(db)
	breakingRepo := repository.NewPostgresBreakingNewsRepo(db)
	sourceRepo := repository.NewPostgresSourceRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)

	// ランキング
	sources := rankingFile.SourceRanker()
	ranker := ranking.NewRanker(sources, ranking.NewRelevanceScorer(sources, nil), logger)
	feedService := feed.NewService(articleRepo, ranker, logger, feed.Options{
		Profiles:       rankingFile.Profiles(),
		NoiseThreshold: rankingFile.NoiseThreshold,
	})

	// 速報監視
	fetcher := fetchpkg.NewFetcher(security.NewSSRFGuard(), logger, collector, cfg.MonitorFetchTimeout, cfg.MonitorFetchMaxSize)
	classifier := breaking.NewClassifier(repository.NewPostgresUrgencyScorer(db), logger)
	monitor := breaking.NewMonitor(sourceRepo, breakingRepo, fetcher, classifier, security.NewContentSanitizer(), collector, logger).
		WithConcurrency(cfg.MonitorMaxConcurrent)

	// 翻訳
	var translator translate.Translator
	if cfg.AnthropicAPIKey != "" {
		translator = translate.NewAnthropicTranslator(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	} else {
		logger.Warn("ANTHROPIC_API_KEYが未設定のため、翻訳は接頭辞の付与のみ行います")
	}

	return &services{
		registry:     registry,
		metrics:      collector,
		articles:     articleRepo,
		feed:         feedService,
		breaking:     breaking.NewService(breakingRepo, sources),
		monitor:      monitor,
		tagging:      tagging.NewService(articleRepo, tagRepo, logger),
		translation:  translate.NewService(articleRepo, translator, logger),
		developments: development.NewService(articleRepo, development.NewAnalyzer(sources), logger),
		expiry:       cleanup.NewExpiryJob(breakingRepo, db, logger, collector),
	}, nil
}

// buildRouter はAPIサーバーのハンドラーを組み立てる。
// 嗜好リストはprefDB（SQLite）に保存する。
func buildRouter(cfg *config.Config, db *sql.DB, prefDB *sql.DB, svc *services, rateLimiter *middleware.RateLimiter, logger *slog.Logger) (http.Handler, error) {
	prefStore, err := repository.NewSQLitePreferenceStore(prefDB)
	if err != nil {
		return nil, err
	}
	prefService := recommend.NewPreferenceService(prefStore, cfg.PreferenceMax)

	engine := recommend.NewEngine(
		svc.articles,
		prefService,
		recommend.NewCache(cfg.RecommendCacheTTL, cfg.RecommendCacheMax),
		svc.metrics,
		logger,
		recommend.Options{Timeout: cfg.RecommendTimeout, MinScore: cfg.RecommendMinScore},
	)

	return handler.NewRouter(&handler.RouterDeps{
		Logger:            logger,
		RequestRecorder:   svc.metrics,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		DB:             db,
		MetricsHandler: metrics.Handler(svc.registry),

		ArticleService:  svc.feed,
		BreakingService: svc.breaking,
		BreakingLimit:   cfg.BreakingListLimit,

		RecommendationService: recommend.NewSessions(engine),
		PreferenceService:     prefService,
		ArticleLookup:         svc.articles,
		Invalidator:           engine,

		Monitor:      svc.monitor,
		Tagger:       svc.tagging,
		Translation:  svc.translation,
		Developments: svc.developments,
	}), nil
}

// buildScheduler はworkerの定期ジョブを登録したSchedulerを組み立てる。
func buildScheduler(cfg *config.Config, svc *services, logger *slog.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(logger, svc.metrics)

	jobs := []scheduler.Job{
		{
			Name:       JobBreakingMonitor,
			Spec:       cfg.MonitorSchedule,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				if r := svc.monitor.Run(ctx); !r.Success {
					return errors.New(r.Message)
				}
				return nil
			},
		},
		{
			Name: JobTagging,
			Spec: cfg.TaggingSchedule,
			Run: func(ctx context.Context) error {
				if r := svc.tagging.Run(ctx, tagging.DefaultLimit, false); !r.Success {
					return errors.New(r.Message)
				}
				return nil
			},
		},
		{
			Name: JobTranslation,
			Spec: cfg.TranslateSchedule,
			Run: func(ctx context.Context) error {
				if r := svc.translation.Run(ctx, translate.DefaultLimit, false); !r.Success {
					return errors.New(r.Message)
				}
				return nil
			},
		},
		{
			Name: JobExpirySweep,
			Spec: cfg.ExpirySweepSchedule,
			Run:  svc.expiry.Run,
		},
	}
	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return nil, fmt.Errorf("ジョブの登録に失敗しました: %w", err)
		}
	}
	return s, nil
}
