package recommend

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

// スコア要素の重み。
const (
	CategoryWeight  = 10
	SourceWeight    = 8
	KeywordWeight   = 5
	RecencyBonus    = 5
	RegionWeight    = 3
	DefaultMinScore = 15

	recentWindow = 24 * time.Hour
)

// Profile は嗜好履歴から集計した出現回数。
type Profile struct {
	Categories map[string]int
	Sources    map[string]int
	Keywords   map[string]int
	Regions    map[string]int
}

// BuildProfile は嗜好リストから出現回数を集計する。空の値は数えない。
func BuildProfile(prefs []model.UserPreference) Profile {
	p := Profile{
		Categories: make(map[string]int),
		Sources:    make(map[string]int),
		Keywords:   make(map[string]int),
		Regions:    make(map[string]int),
	}
	for _, pref := range prefs {
		countNonEmpty(p.Categories, pref.Category)
		countNonEmpty(p.Sources, pref.Source)
		countNonEmpty(p.Regions, pref.Region)
		for _, kw := range pref.Keywords {
			countNonEmpty(p.Keywords, kw)
		}
	}
	return p
}

func countNonEmpty(m map[string]int, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	m[key]++
}

// Empty は集計対象が1件もない場合にtrueを返す。
func (p Profile) Empty() bool {
	return len(p.Categories) == 0 && len(p.Sources) == 0 && len(p.Keywords) == 0 && len(p.Regions) == 0
}

// Score は候補記事を嗜好プロファイルに対してスコアリングする。
// 同じ入力からは同じスコアと理由が得られる。
func Score(a model.Article, p Profile, now time.Time) model.Recommendation {
	score := 0.0
	reasons := make([]string, 0, 5)

	if n := p.Categories[a.Category]; n > 0 {
		score += float64(n * CategoryWeight)
		reasons = append(reasons, fmt.Sprintf("Matches preferred category: %s", a.Category))
	}

	if n := p.Sources[a.Source]; n > 0 {
		score += float64(n * SourceWeight)
		reasons = append(reasons, fmt.Sprintf("From preferred source: %s", a.Source))
	}

	keywordScore := 0
	var matched []string
	for _, kw := range ExtractKeywords(a.Title, a.Description) {
		if n := p.Keywords[kw]; n > 0 {
			keywordScore += n * KeywordWeight
			matched = append(matched, kw)
		}
	}
	if keywordScore > 0 {
		score += float64(keywordScore)
		reasons = append(reasons, fmt.Sprintf("Contains preferred keywords: %s", strings.Join(matched, ", ")))
	}

	if now.Sub(a.PublishedAt) < recentWindow {
		score += RecencyBonus
		reasons = append(reasons, "Recent article")
	}

	if n := p.Regions[a.Region]; n > 0 {
		score += float64(n * RegionWeight)
		reasons = append(reasons, fmt.Sprintf("From preferred region: %s", a.Region))
	}

	return model.Recommendation{
		Article: a,
		Score:   int(math.Round(score)),
		Reasons: reasons,
	}
}
