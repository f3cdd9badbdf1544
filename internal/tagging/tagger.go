// Package tagging は記事への自動タグ付与を提供する。
package tagging

import (
	"slices"
	"strings"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
)

// タグ判定の規則。
const (
	titleMatchScore   = 20
	bodyMatchScore    = 10
	matchBonusPerTerm = 5
	maxMatchBonus     = 25
	categoryBonus     = 15
	regionBonus       = 10
	minTagScore       = 20
	maxTagScore       = 100
	// MaxTags は1記事に付与するタグの上限。
	MaxTags = 5
)

// TagScore はタグと関連度（0〜100）。
type TagScore struct {
	Slug      string `json:"slug"`
	Relevance int    `json:"relevance"`
}

// 紛争記事のタグ判定の規則。
const (
	conflictTitleMatchScore   = 25
	conflictBodyMatchScore    = 15
	conflictMatchBonusPerTerm = 10
	conflictMaxMatchBonus     = 50
	// MaxConflictTags は紛争記事1件に付与するタグの上限。
	MaxConflictTags = 8
)

// rules は語彙によるタグ判定の配点。
type rules struct {
	titleScore   int
	bodyScore    int
	bonusPerTerm int
	maxBonus     int
}

var (
	defaultRules  = rules{titleMatchScore, bodyMatchScore, matchBonusPerTerm, maxMatchBonus}
	conflictRules = rules{conflictTitleMatchScore, conflictBodyMatchScore, conflictMatchBonusPerTerm, conflictMaxMatchBonus}
)

// Tagger は記事のタイトルと概要からタグを判定する。
// 紛争カテゴリの記事には紛争用のパターンを使う。
type Tagger struct {
	patterns         []Pattern
	conflictPatterns []Pattern
	keywords         ranking.KeywordMatcher
}

// NewTagger はDefaultPatternsとConflictPatternsを使うTaggerを生成する。
func NewTagger() *Tagger {
	return &Tagger{
		patterns:         DefaultPatterns,
		conflictPatterns: ConflictPatterns,
		keywords:         ranking.SubstringKeywordMatcher{},
	}
}

// Analyze は記事に付与するタグを関連度の高い順に返す。
// 紛争カテゴリの記事は最大MaxConflictTags件、それ以外は最大MaxTags件。
func (t *Tagger) Analyze(a model.Article) []TagScore {
	category := strings.ToLower(strings.TrimSpace(a.Category))
	if IsConflictCategory(category) {
		return t.analyzeConflict(a)
	}

	content := a.Text()
	region := strings.ToLower(strings.TrimSpace(a.Region))

	var scores []TagScore
	has := func(slug string) bool {
		return slices.ContainsFunc(scores, func(s TagScore) bool { return s.Slug == slug })
	}

	for _, p := range t.patterns {
		score, ok := t.score(p, defaultRules, a)
		if !ok {
			continue
		}
		if aligned(categoryAlignments[p.Slug], category) {
			score += categoryBonus
		}
		if aligned(regionAlignments[p.Slug], region) {
			score += regionBonus
		}

		if score >= minTagScore {
			scores = append(scores, TagScore{Slug: p.Slug, Relevance: min(score, maxTagScore)})
		}
	}

	if slug, ok := categoryTags[category]; ok && !has(slug) {
		scores = append(scores, TagScore{Slug: slug, Relevance: categoryTagScore})
	}
	if slug, ok := regionTags[region]; ok && !has(slug) {
		scores = append(scores, TagScore{Slug: slug, Relevance: regionTagScore})
	}
	if slug := timeSensitivityTag(content); slug != "" && !has(slug) {
		scores = append(scores, TagScore{Slug: slug, Relevance: timeTagScore})
	}

	slices.SortStableFunc(scores, func(x, y TagScore) int { return y.Relevance - x.Relevance })
	if len(scores) > MaxTags {
		scores = scores[:MaxTags]
	}
	return scores
}

// analyzeConflict は紛争用のパターンでタグを判定する。
// 一致の有無によらずConflictTagを付与する。
func (t *Tagger) analyzeConflict(a model.Article) []TagScore {
	var scores []TagScore
	for _, p := range t.conflictPatterns {
		score, ok := t.score(p, conflictRules, a)
		if ok && score >= minTagScore {
			scores = append(scores, TagScore{Slug: p.Slug, Relevance: min(score, maxTagScore)})
		}
	}
	if !slices.ContainsFunc(scores, func(s TagScore) bool { return s.Slug == ConflictTag }) {
		scores = append(scores, TagScore{Slug: ConflictTag, Relevance: conflictTagScore})
	}

	slices.SortStableFunc(scores, func(x, y TagScore) int { return y.Relevance - x.Relevance })
	if len(scores) > MaxConflictTags {
		scores = scores[:MaxConflictTags]
	}
	return scores
}

// score はパターンの語彙の一致から配点を計算する。一致がない場合はfalse。
// タイトルに含まれる語は概要のみの語より高く、一致語数に応じたボーナスを加える。
func (t *Tagger) score(p Pattern, r rules, a model.Article) (int, bool) {
	matched := t.keywords.Matches(a.Text(), p.Terms)
	if len(matched) == 0 {
		return 0, false
	}
	title := strings.ToLower(a.Title)
	score := 0
	for _, term := range matched {
		if strings.Contains(title, term) {
			score += r.titleScore
		} else {
			score += r.bodyScore
		}
	}
	return score + min(len(matched)*r.bonusPerTerm, r.maxBonus), true
}

func aligned(candidates []string, value string) bool {
	if value == "" {
		return false
	}
	for _, c := range candidates {
		if strings.Contains(value, c) {
			return true
		}
	}
	return false
}

func timeSensitivityTag(content string) string {
	for _, ts := range timeSensitivity {
		for _, term := range ts.terms {
			if strings.Contains(content, term) {
				return ts.slug
			}
		}
	}
	return ""
}
