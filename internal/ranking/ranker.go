package ranking

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/hitoshi/newspulse/internal/model"
)

// DefaultNoiseThreshold は二次スコアの差をソートキーとして採用する最小差。
const DefaultNoiseThreshold = 10

// SecondaryScorer は文脈固有の二次スコア（地域関連度など）を算出する。
type SecondaryScorer interface {
	Score(a model.Article) float64
}

// RankContext はソートの文脈。Secondaryがnilの場合、二次キーは使用しない。
type RankContext struct {
	Scoring        ScoringContext
	Secondary      SecondaryScorer
	NoiseThreshold float64
}

// Ranker は記事集合をスコアリングし、多段キーで安定ソートする。
type Ranker struct {
	sources *SourceRanker
	scorer  *RelevanceScorer
	logger  *slog.Logger
}

// NewRanker はRankerを生成する。
func NewRanker(sources *SourceRanker, scorer *RelevanceScorer, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{sources: sources, scorer: scorer, logger: logger}
}

// Rank は記事をスコアリングし、次のキー順で安定ソートした結果を返す。
//
//  1. 配信元ティア（tier1 > tier2 > tier3）
//  2. 二次スコア（差がNoiseThresholdを超える場合のみ）
//  3. 優先スコア降順
//  4. 公開日時降順
//
// すべてのキーが同値の場合は入力順を保持する。
// IDが重複する記事は最初の1件のみ残し、必須フィールドが欠けた記事はスキップする。
func (r *Ranker) Rank(articles []model.Article, rc RankContext) []model.ScoredArticle {
	threshold := rc.NoiseThreshold
	if threshold <= 0 {
		threshold = DefaultNoiseThreshold
	}

	scored := make([]model.ScoredArticle, 0, len(articles))
	seen := make(map[string]struct{}, len(articles))
	skipped := 0

	for _, a := range articles {
		if err := a.Validate(); err != nil {
			skipped++
			r.logger.Warn("不正な記事をスキップしました",
				slog.String("article_id", a.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		tier := r.sources.Classify(a.Source)
		sa := model.ScoredArticle{
			Article:       a,
			SourceTier:    tier,
			PriorityScore: r.scorer.score(a, tier, rc.Scoring),
		}
		if rc.Secondary != nil {
			sa.SecondaryScore = rc.Secondary.Score(a)
		}
		scored = append(scored, sa)
	}

	slices.SortStableFunc(scored, func(a, b model.ScoredArticle) int {
		return compareScored(a, b, rc.Secondary != nil, threshold)
	})

	if skipped > 0 {
		r.logger.Info("ランキングを完了しました",
			slog.Int("ranked", len(scored)),
			slog.Int("skipped", skipped),
		)
	}
	return scored
}

// compareScored は多段キーの比較関数。aを先に並べる場合に負値を返す。
func compareScored(a, b model.ScoredArticle, useSecondary bool, threshold float64) int {
	if c := cmp.Compare(b.SourceTier.Rank(), a.SourceTier.Rank()); c != 0 {
		return c
	}
	if useSecondary && math.Abs(a.SecondaryScore-b.SecondaryScore) > threshold {
		return cmp.Compare(b.SecondaryScore, a.SecondaryScore)
	}
	if c := cmp.Compare(b.PriorityScore, a.PriorityScore); c != 0 {
		return c
	}
	return b.PublishedAt.Compare(a.PublishedAt)
}
