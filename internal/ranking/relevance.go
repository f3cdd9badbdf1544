package ranking

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

// ScoringContext はスコア計算の入力となる文脈。
// 現在時刻を明示的に受け取ることで、同じ入力からは常に同じスコアを返す。
type ScoringContext struct {
	Now     time.Time
	Profile FeedProfile
}

// RelevanceScorer は鮮度・配信元ティア・キーワード・タグ整合・速報語彙から
// 記事の総合優先スコアを算出する。
type RelevanceScorer struct {
	sources  *SourceRanker
	keywords KeywordMatcher
}

// NewRelevanceScorer はRelevanceScorerを生成する。
// keywordsがnilの場合はSubstringKeywordMatcherを使用する。
func NewRelevanceScorer(sources *SourceRanker, keywords KeywordMatcher) *RelevanceScorer {
	if keywords == nil {
		keywords = SubstringKeywordMatcher{}
	}
	return &RelevanceScorer{sources: sources, keywords: keywords}
}

// Recency は鮮度スコア max(0, 100 - 経過時間/24 * decay) を返す。
// 未来の公開日時は経過0として扱う。
func Recency(published, now time.Time, decayRate float64) float64 {
	hoursOld := now.Sub(published).Hours()
	if hoursOld < 0 {
		hoursOld = 0
	}
	return math.Max(0, 100-(hoursOld/24)*decayRate)
}

// Score は記事の優先スコアを算出する。
// 上限はなく、相対順序の決定にのみ使用する。
func (s *RelevanceScorer) Score(a model.Article, ctx ScoringContext) float64 {
	return s.score(a, s.sources.Classify(a.Source), ctx)
}

func (s *RelevanceScorer) score(a model.Article, tier model.SourceTier, ctx ScoringContext) float64 {
	p := ctx.Profile
	recency := Recency(a.PublishedAt, ctx.Now, ClampDecay(p.DecayRate))

	m := s.sources.multipliers[tier]
	total := recency*m.Factor + m.Bonus

	text := a.Text()
	total += s.keywordComponent(a, text, p)
	total += alignmentComponent(a, p)

	if len(s.keywords.Matches(text, p.BreakingTerms)) > 0 {
		total += p.BreakingBoost
	}

	return math.Round(total)
}

func (s *RelevanceScorer) keywordComponent(a model.Article, text string, p FeedProfile) float64 {
	matches := s.keywords.Matches(text, p.Keywords)
	if len(matches) == 0 {
		return 0
	}
	title := strings.ToLower(a.Title)
	var score float64
	for _, kw := range matches {
		if strings.Contains(title, kw) {
			score += p.TitleKeywordWeight
		} else {
			score += p.BodyKeywordWeight
		}
	}
	if len(matches) > 1 {
		score += float64(len(matches)) * p.MultiMatchBonus
	}
	return score
}

func alignmentComponent(a model.Article, p FeedProfile) float64 {
	var score float64
	category := strings.ToLower(a.Category)
	if category != "" && slices.Contains(p.AlignedCategories, category) {
		score += p.CategoryWeight
	}
	for _, tag := range a.Tags {
		if slices.Contains(p.AlignedTags, strings.ToLower(tag)) {
			score += p.TagWeight
		}
	}
	return score
}
