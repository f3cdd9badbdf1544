package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
)

// ジョブの既定値。
const (
	DefaultLimit      = 100
	maxReportedErrors = 10
)

// ArticleFinder はタグ付け対象の記事の取得元。
type ArticleFinder interface {
	Find(ctx context.Context, q *repository.Query) ([]model.Article, error)
}

// Result はタグ付けジョブの実行結果。トリガーAPIのレスポンスとしてそのまま返す。
type Result struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Tagged    int       `json:"tagged"`
	Processed int       `json:"processed"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Service は未タグ付けの記事にタグを付与する。
type Service struct {
	articles ArticleFinder
	tags     repository.TagRepository
	tagger   *Tagger
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(articles ArticleFinder, tags repository.TagRepository, logger *slog.Logger) *Service {
	return &Service{
		articles: articles,
		tags:     tags,
		tagger:   NewTagger(),
		logger:   logger,
		now:      time.Now,
	}
}

// Run は新しい順に最大limit件の記事をタグ付けする。
// forceがfalseの場合はタグ付け済み（tagged_atあり）の記事を対象外とし、
// trueの場合は既存のタグ付与を置き換える。
func (s *Service) Run(ctx context.Context, limit int, force bool) Result {
	start := s.now()
	if limit <= 0 {
		limit = DefaultLimit
	}

	if err := s.tags.EnsureTags(ctx, Catalog()); err != nil {
		return s.failed(start, err)
	}

	q := repository.Select(repository.TableArticles).
		Order("created_at", true).
		WithLimit(limit)
	if !force {
		q.Filter("tagged_at", repository.OpIsNull, nil)
	}

	articles, err := s.articles.Find(ctx, q)
	if err != nil {
		return s.failed(start, fmt.Errorf("タグ付け対象の記事の取得に失敗しました: %w", err))
	}
	if len(articles) == 0 {
		return Result{Success: true, Message: "No articles need tagging", Timestamp: start}
	}

	var tagged int
	var errs []string
	for _, a := range articles {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			break
		}

		scores := s.tagger.Analyze(a)
		assignments := make([]model.TagAssignment, 0, len(scores))
		for _, sc := range scores {
			assignments = append(assignments, model.TagAssignment{
				ArticleID:      a.ID,
				TagSlug:        sc.Slug,
				RelevanceScore: sc.Relevance,
				AssignedAt:     s.now(),
			})
		}

		// タグなしでもtagged_atを記録して次回の対象から外す
		if err := s.tags.ReplaceAssignments(ctx, a.ID, assignments); err != nil {
			s.logger.Error("タグの付与に失敗しました",
				slog.String("article_id", a.ID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("Article %s: %v", a.Title, err))
			continue
		}
		if len(assignments) > 0 {
			tagged++
		}
	}

	s.logger.Info("タグ付けジョブが完了しました",
		slog.Int("processed", len(articles)),
		slog.Int("tagged", tagged),
		slog.Int("errors", len(errs)),
		slog.Bool("force", force),
		slog.Float64("duration_ms", float64(s.now().Sub(start).Milliseconds())),
	)

	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	return Result{
		Success:   true,
		Message:   fmt.Sprintf("Tagged %d articles out of %d processed", tagged, len(articles)),
		Tagged:    tagged,
		Processed: len(articles),
		Errors:    errs,
		Timestamp: start,
	}
}

func (s *Service) failed(start time.Time, err error) Result {
	s.logger.Error("タグ付けジョブに失敗しました", slog.String("error", err.Error()))
	return Result{
		Success:   false,
		Message:   err.Error(),
		Errors:    []string{err.Error()},
		Timestamp: start,
	}
}
