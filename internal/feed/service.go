// Package feed はランク付けされた記事一覧のページ取得を提供する。
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
	"github.com/hitoshi/newspulse/internal/repository"
)

// AllCategories はカテゴリで絞り込まない一覧を表すカテゴリ名。
const AllCategories = "Today"

// ArticleFinder は一覧の候補記事の取得元。
type ArticleFinder interface {
	Find(ctx context.Context, q *repository.Query) ([]model.Article, error)
}

// Request は記事一覧のページ取得条件。
type Request struct {
	Category  string
	Search    string
	Region    string
	Profile   string
	PageIndex int
	PageSize  int
}

// Page は記事一覧の1ページ分。
type Page = ranking.Page[model.ScoredArticle]

// Options はServiceの設定。0値の項目は既定値を使う。
type Options struct {
	PageSize int
	// CandidateWindow は毎回取得する候補記事数。全ページで同じ値を使う。
	CandidateWindow int
	Profiles        map[string]ranking.FeedProfile
	Region          *ranking.RegionalScorer
	// NoiseThreshold は二次スコアを比較キーに使う最小差。0の場合はranking.DefaultNoiseThreshold。
	NoiseThreshold float64
}

// Service は記事一覧のページを返す。
// カーソルを持たず、毎回候補集合を取り直してランク付けし、該当範囲を切り出す。
type Service struct {
	articles ArticleFinder
	ranker   *ranking.Ranker
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(articles ArticleFinder, ranker *ranking.Ranker, logger *slog.Logger, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = ranking.DefaultPageSize
	}
	opts.CandidateWindow = ranking.CandidateWindow(opts.CandidateWindow)
	if opts.Profiles == nil {
		opts.Profiles = ranking.DefaultProfiles()
	}
	if opts.Region == nil {
		opts.Region = ranking.NewRegionalScorer(ranking.DefaultRegionProfile(), nil)
	}
	return &Service{articles: articles, ranker: ranker, opts: opts, logger: logger, now: time.Now}
}

// ListPage はreqの条件で候補記事を取得し、ランク付けしてreq.PageIndexのページを返す。
// プロファイル未指定の場合はgeneralを使い、regionalの場合は地域関連度を二次キーにする。
func (s *Service) ListPage(ctx context.Context, req Request) (Page, error) {
	if req.PageIndex < 0 {
		return Page{}, model.NewInvalidParameterError("page", "0以上を指定してください")
	}
	if req.PageSize <= 0 {
		req.PageSize = s.opts.PageSize
	}

	name := strings.ToLower(strings.TrimSpace(req.Profile))
	if name == "" {
		name = ranking.ProfileGeneral
	}
	profile, ok := s.opts.Profiles[name]
	if !ok {
		return Page{}, model.NewInvalidParameterError("profile", fmt.Sprintf("未知のプロファイルです: %s", req.Profile))
	}

	articles, err := s.articles.Find(ctx, candidateQuery(req, s.opts.CandidateWindow))
	if err != nil {
		s.logger.Error("記事一覧の取得に失敗しました",
			slog.String("category", req.Category),
			slog.String("error", err.Error()),
		)
		return Page{}, model.NewUpstreamFetchError(err.Error())
	}

	rc := ranking.RankContext{
		Scoring:        ranking.ScoringContext{Now: s.now(), Profile: profile},
		NoiseThreshold: s.opts.NoiseThreshold,
	}
	if name == ranking.ProfileRegional {
		rc.Secondary = s.opts.Region
	}

	ranked := s.ranker.Rank(articles, rc)
	return ranking.Paginate(ranked, req.PageSize, req.PageIndex), nil
}

// likeEscaper はILIKEパターンのメタ文字を検索語そのものとして扱うためにエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// candidateQuery は公開日時の新しい順に最大limit件を取得する問い合わせを組み立てる。
// 公開日時が同じ記事はidで順序を固定し、limit境界の切り方をリクエスト間で揃える。
func candidateQuery(req Request, limit int) *repository.Query {
	q := repository.Select(repository.TableArticles).
		Order("published_date", true).
		Order("id", false).
		WithLimit(limit)

	if c := strings.TrimSpace(req.Category); c != "" && !strings.EqualFold(c, AllCategories) {
		q.Filter("category", repository.OpEq, strings.ToLower(c))
	}
	if r := strings.TrimSpace(req.Region); r != "" {
		q.Filter("region", repository.OpEq, strings.ToLower(r))
	}
	if term := strings.TrimSpace(req.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		q.Or(
			repository.Condition{Field: "title", Op: repository.OpILike, Value: pattern},
			repository.Condition{Field: "description", Op: repository.OpILike, Value: pattern},
		)
	}
	return q
}
