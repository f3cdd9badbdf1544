package development

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
	"github.com/hitoshi/newspulse/internal/tagging"
)

// ジョブの既定値。
const (
	DefaultLimit = 50
	DefaultHours = 24
	// MaxDevelopments は結果に含める動向の上限。
	MaxDevelopments = 8
)

// ArticleFinder は解析対象の記事の取得元。
type ArticleFinder interface {
	Find(ctx context.Context, q *repository.Query) ([]model.Article, error)
}

// Result は動向解析ジョブの実行結果。トリガーAPIのレスポンスとしてそのまま返す。
type Result struct {
	Success           bool          `json:"success"`
	Message           string        `json:"message,omitempty"`
	Developments      []Development `json:"developments"`
	ArticlesAnalyzed  int           `json:"articlesAnalyzed"`
	TotalDevelopments int           `json:"totalDevelopments"`
	LastUpdated       time.Time     `json:"lastUpdated"`
	TimeRange         string        `json:"timeRange"`
	Error             string        `json:"error,omitempty"`
}

// Service は直近の紛争記事から動向を抽出する。結果は保存しない。
type Service struct {
	articles ArticleFinder
	analyzer *Analyzer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(articles ArticleFinder, analyzer *Analyzer, logger *slog.Logger) *Service {
	if analyzer == nil {
		analyzer = NewAnalyzer(nil)
	}
	return &Service{articles: articles, analyzer: analyzer, logger: logger, now: time.Now}
}

// Run は直近hours時間以内に公開された紛争カテゴリの記事を新しい順に最大limit件解析し、
// 緊急度と信頼度の高い順に最大MaxDevelopments件の動向を返す。
func (s *Service) Run(ctx context.Context, limit, hours int) Result {
	start := s.now()
	if limit <= 0 {
		limit = DefaultLimit
	}
	if hours <= 0 {
		hours = DefaultHours
	}
	timeRange := fmt.Sprintf("%d hours", hours)

	q := repository.Select(repository.TableArticles).
		Filter("category", repository.OpIn, tagging.ConflictCategories()).
		Filter("published_date", repository.OpGte, start.Add(-time.Duration(hours)*time.Hour)).
		Order("published_date", true).
		WithLimit(limit)

	articles, err := s.articles.Find(ctx, q)
	if err != nil {
		err = fmt.Errorf("動向解析の対象記事の取得に失敗しました: %w", err)
		s.logger.Error("動向解析ジョブに失敗しました", slog.String("error", err.Error()))
		return Result{
			Success:      false,
			Developments: []Development{},
			LastUpdated:  start,
			TimeRange:    timeRange,
			Error:        err.Error(),
		}
	}
	if len(articles) == 0 {
		return Result{
			Success:      true,
			Message:      "No recent articles found for analysis",
			Developments: []Development{},
			LastUpdated:  start,
			TimeRange:    timeRange,
		}
	}

	devs := make([]Development, 0, len(articles))
	analyzed := 0
	for _, a := range articles {
		if err := a.Validate(); err != nil {
			s.logger.Warn("不正な記事をスキップしました",
				slog.String("article_id", a.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		analyzed++
		if d, ok := s.analyzer.Analyze(a); ok {
			devs = append(devs, d)
		}
	}

	Sort(devs)
	total := len(devs)
	if len(devs) > MaxDevelopments {
		devs = devs[:MaxDevelopments]
	}

	s.logger.Info("動向解析ジョブが完了しました",
		slog.Int("analyzed", analyzed),
		slog.Int("developments", total),
		slog.Int("hours", hours),
		slog.Float64("duration_ms", float64(s.now().Sub(start).Milliseconds())),
	)

	return Result{
		Success:           true,
		Developments:      devs,
		ArticlesAnalyzed:  analyzed,
		TotalDevelopments: total,
		LastUpdated:       start,
		TimeRange:         timeRange,
	}
}
