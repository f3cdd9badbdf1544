package ranking

import (
	"slices"
	"strings"

	"github.com/hitoshi/newspulse/internal/model"
)

// RegionProfile は地域関連度スコアの設定。
type RegionProfile struct {
	Region          string
	NeighborRegions []string
	Sources         []string
	Keywords        []string
	Categories      []string
	// Threshold はIsRegionalが真となる最低スコア。
	Threshold float64
}

// DefaultRegionProfile はバングラデシュ向けの組み込みプロファイルを返す。
func DefaultRegionProfile() RegionProfile {
	return RegionProfile{
		Region:          "bangladesh",
		NeighborRegions: []string{"asia"},
		Sources: []string{
			"bangla tribune", "bd24live", "risingbd", "bangladesh diplomat",
			"the dhaka post", "energy bangla", "daily jagaran", "jagonews24.com",
			"daily bangladesh", "blitz",
		},
		Keywords: []string{
			"bangladesh", "bengal", "dhaka", "chittagong", "sylhet", "rajshahi", "khulna",
			"barisal", "rangpur", "mymensingh",
			"awami league", "bnp", "jatiya party", "sheikh hasina", "khaleda zia",
			"parliament", "jatiya sangsad",
			"cox's bazar", "sundarbans", "padma", "jamuna", "meghna", "rohingya", "saint martin",
			"bengali", "bangla", "pohela boishakh", "durga puja", "eid", "ramadan",
			"victory day", "independence day",
			"taka", "garments", "rmg", "textile", "jute", "tea", "shrimp", "hilsa",
			"brac", "grameen", "yunus", "microcredit", "bangladesh bank", "dse", "cse",
		},
		Categories: []string{"politics", "general", "business", "sports"},
		Threshold:  15,
	}
}

// RegionalScorer は記事が特定地域に関するものかを採点する。
// ArticleRankerの二次スコアとして使用する。
type RegionalScorer struct {
	profile  RegionProfile
	keywords KeywordMatcher
}

// NewRegionalScorer はRegionalScorerを生成する。
func NewRegionalScorer(profile RegionProfile, keywords KeywordMatcher) *RegionalScorer {
	if keywords == nil {
		keywords = SubstringKeywordMatcher{}
	}
	profile.Region = strings.ToLower(profile.Region)
	return &RegionalScorer{profile: profile, keywords: keywords}
}

// Score は地域関連度スコアを返す。
func (s *RegionalScorer) Score(a model.Article) float64 {
	p := s.profile
	var score float64

	region := strings.ToLower(strings.TrimSpace(a.Region))
	if region == p.Region {
		score += 100
	}
	if slices.Contains(p.NeighborRegions, region) {
		score += 20
	}

	source := strings.ToLower(a.Source)
	for _, src := range p.Sources {
		if strings.Contains(source, src) {
			score += 60
			break
		}
	}

	score += float64(len(s.keywords.Matches(a.Text(), p.Keywords))) * 20
	score += float64(len(s.keywords.Matches(strings.ToLower(a.Title), p.Keywords))) * 15

	if slices.Contains(p.Categories, strings.ToLower(a.Category)) {
		score += 10
	}
	return score
}

// IsRegional は記事が対象地域に関連するかを判定する。
// 地域フィールドが一致する記事は常に関連ありとする。
func (s *RegionalScorer) IsRegional(a model.Article) bool {
	if strings.ToLower(strings.TrimSpace(a.Region)) == s.profile.Region {
		return true
	}
	return s.Score(a) >= s.profile.Threshold
}
