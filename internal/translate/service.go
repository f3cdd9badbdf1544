package translate

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
	DefaultLimit      = 50
	maxReportedErrors = 10
)

// ArticleStore は解析対象の記事の取得と解析結果の保存先。
type ArticleStore interface {
	Find(ctx context.Context, q *repository.Query) ([]model.Article, error)
	SaveAnalysis(ctx context.Context, id string, analysis model.ArticleAnalysis, translation *model.ArticleTranslation) error
}

// Result は翻訳・分類ジョブの実行結果。トリガーAPIのレスポンスとしてそのまま返す。
type Result struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	Processed     int       `json:"processed"`
	Translated    int       `json:"translated"`
	TotalArticles int       `json:"totalArticles"`
	Errors        []string  `json:"errors,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Service は未解析の記事を翻訳・分類する。
type Service struct {
	articles   ArticleStore
	translator Translator
	logger     *slog.Logger
	now        func() time.Time
}

// NewService はServiceを生成する。translatorがnilの場合はMarkerTranslatorを使う。
func NewService(articles ArticleStore, translator Translator, logger *slog.Logger) *Service {
	if translator == nil {
		translator = MarkerTranslator{}
	}
	return &Service{articles: articles, translator: translator, logger: logger, now: time.Now}
}

// Run は新しい順に最大limit件の記事を翻訳・分類する。
// forceがfalseの場合は解析済み（analysis_completed_atあり）の記事を対象外とする。
func (s *Service) Run(ctx context.Context, limit int, force bool) Result {
	start := s.now()
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := repository.Select(repository.TableArticles).
		Order("created_at", true).
		WithLimit(limit)
	if !force {
		q.Filter("analysis_completed_at", repository.OpIsNull, nil)
	}

	articles, err := s.articles.Find(ctx, q)
	if err != nil {
		err = fmt.Errorf("翻訳対象の記事の取得に失敗しました: %w", err)
		s.logger.Error("翻訳・分類ジョブに失敗しました", slog.String("error", err.Error()))
		return Result{Success: false, Message: err.Error(), Errors: []string{err.Error()}, Timestamp: start}
	}
	if len(articles) == 0 {
		return Result{Success: true, Message: "No articles need translation/categorization", Timestamp: start}
	}

	var processed, translated int
	var errs []string
	for _, a := range articles {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			break
		}
		wasTranslated, err := s.processArticle(ctx, a)
		if err != nil {
			s.logger.Error("記事の翻訳・分類に失敗しました",
				slog.String("article_id", a.ID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("Article %s: %v", a.Title, err))
			continue
		}
		processed++
		if wasTranslated {
			translated++
		}
	}

	s.logger.Info("翻訳・分類ジョブが完了しました",
		slog.Int("total", len(articles)),
		slog.Int("processed", processed),
		slog.Int("translated", translated),
		slog.Int("errors", len(errs)),
		slog.Float64("duration_ms", float64(s.now().Sub(start).Milliseconds())),
	)

	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	return Result{
		Success:       true,
		Message:       fmt.Sprintf("Processed %d articles, translated %d", processed, translated),
		Processed:     processed,
		Translated:    translated,
		TotalArticles: len(articles),
		Errors:        errs,
		Timestamp:     start,
	}
}

// processArticle はベンガル語のフィールドを翻訳し、翻訳後のテキストで分類して保存する。
func (s *Service) processArticle(ctx context.Context, a model.Article) (bool, error) {
	title, desc, content := a.Title, a.Description, a.FullText
	wasTranslated := false

	for _, f := range []*string{&title, &desc, &content} {
		if *f == "" || DetectLanguage(*f) != Bangla {
			continue
		}
		out, err := s.translator.Translate(ctx, *f, Bangla)
		if err != nil {
			return false, err
		}
		*f = out
		wasTranslated = true
	}

	analysis := Analyze(title, desc, content)

	var translation *model.ArticleTranslation
	if wasTranslated {
		translation = &model.ArticleTranslation{
			Title:            title,
			Description:      desc,
			Content:          content,
			OriginalLanguage: string(Bangla),
		}
	}

	if err := s.articles.SaveAnalysis(ctx, a.ID, analysis, translation); err != nil {
		return false, err
	}
	return wasTranslated, nil
}
