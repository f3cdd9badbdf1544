package translate

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/newspulse/internal/model"
)

type patternSet struct {
	name  string
	terms []string
}

// contentPatterns は主カテゴリ判定の語彙。同点の場合は先に定義したカテゴリを優先する。
var contentPatterns = []patternSet{
	{"technology", []string{
		"ai", "artificial intelligence", "machine learning", "blockchain", "cryptocurrency",
		"software", "app", "digital", "cyber", "tech", "innovation", "startup",
		"internet", "online", "mobile", "computer", "data", "algorithm", "robot",
		"automation", "cloud", "programming", "coding", "development",
	}},
	{"business", []string{
		"business", "company", "corporate", "industry", "market", "economy", "economic",
		"financial", "finance", "bank", "banking", "investment", "stock", "trade",
		"commerce", "entrepreneur", "startup", "profit", "revenue", "sales",
		"merger", "acquisition", "ipo", "earnings", "growth",
	}},
	{"politics", []string{
		"government", "minister", "parliament", "election", "vote", "political",
		"policy", "law", "legislation", "prime minister", "president", "party",
		"democracy", "governance", "administration", "cabinet", "opposition",
		"coalition", "referendum", "campaign", "diplomat", "foreign policy",
	}},
	{"culture", []string{
		"culture", "cultural", "art", "artist", "music", "film", "movie", "book",
		"literature", "festival", "celebration", "tradition", "heritage",
		"language", "religion", "community", "society", "lifestyle",
		"entertainment", "celebrity", "fashion", "food", "cuisine",
	}},
	{"sports", []string{
		"cricket", "football", "soccer", "match", "tournament", "championship",
		"olympics", "sports", "player", "team", "game", "victory", "defeat",
		"league", "club", "athlete", "coach", "stadium", "score", "goal",
	}},
	{"health", []string{
		"health", "medical", "hospital", "doctor", "patient", "medicine", "treatment",
		"vaccine", "disease", "covid", "pandemic", "healthcare", "clinic", "surgery",
		"therapy", "diagnosis", "prevention", "wellness", "fitness", "nutrition",
	}},
	{"education", []string{
		"education", "school", "university", "student", "teacher", "academic",
		"exam", "graduation", "scholarship", "learning", "curriculum", "research",
		"study", "college", "degree", "course", "training", "knowledge",
	}},
	{"environment", []string{
		"environment", "climate", "weather", "pollution", "green", "renewable",
		"sustainability", "conservation", "nature", "forest", "wildlife",
		"carbon", "emission", "global warming", "recycling", "energy",
	}},
}

// contentTypes は記事種別の判定語彙。先に一致したものを採用する。
var contentTypes = []patternSet{
	{"news", []string{"breaking", "reported", "announced", "confirmed", "according to", "sources say"}},
	{"opinion", []string{"opinion", "editorial", "commentary", "analysis", "perspective", "view", "believe"}},
	{"feature", []string{"profile", "interview", "investigation", "in-depth", "special report", "feature"}},
	{"tutorial", []string{"how to", "guide", "tutorial", "step by step", "instructions", "tips"}},
	{"review", []string{"review", "rating", "evaluation", "assessment", "critique", "analysis"}},
}

// audienceIndicators は想定読者の判定語彙。先に一致したものを採用する。
var audienceIndicators = []patternSet{
	{"general", []string{"public", "everyone", "citizens", "people", "community", "society"}},
	{"professional", []string{"industry", "experts", "professionals", "specialists", "executives"}},
	{"students", []string{"students", "learners", "academic", "educational", "university", "college"}},
	{"technical", []string{"developers", "engineers", "technical", "advanced", "implementation"}},
}

// 解析結果の件数上限。
const (
	maxSecondaryCategories = 2
	maxThemes              = 3
	maxThemeTags           = 2
	maxAutoTags            = 7
	minThemeLength         = 4
)

// Analyze はタイトル・概要・本文から主カテゴリ、副カテゴリ、記事種別、想定読者、主題語、自動タグを判定する。
func Analyze(title, description, content string) model.ArticleAnalysis {
	text := strings.ToLower(title + " " + description + " " + content)

	primary := "general"
	best := 0
	type catScore struct {
		name  string
		score int
	}
	scores := make([]catScore, 0, len(contentPatterns))
	for _, p := range contentPatterns {
		n := countMatches(text, p.terms)
		scores = append(scores, catScore{p.name, n})
		if n > best {
			best = n
			primary = p.name
		}
	}

	slices.SortStableFunc(scores, func(a, b catScore) int { return b.score - a.score })
	secondary := make([]string, 0, maxSecondaryCategories)
	for _, s := range scores {
		if len(secondary) == maxSecondaryCategories {
			break
		}
		if s.name != primary && s.score > 0 {
			secondary = append(secondary, s.name)
		}
	}

	contentType := firstMatch(text, contentTypes, "news")
	audience := firstMatch(text, audienceIndicators, "general")
	themes := extractThemes(text)

	candidates := []string{primary, contentType, audience}
	candidates = append(candidates, secondary...)
	candidates = append(candidates, themes[:min(len(themes), maxThemeTags)]...)
	tags := make([]string, 0, maxAutoTags)
	for _, c := range candidates {
		if len(tags) == maxAutoTags {
			break
		}
		if !slices.Contains(tags, c) {
			tags = append(tags, c)
		}
	}

	return model.ArticleAnalysis{
		PrimaryCategory:     primary,
		SecondaryCategories: secondary,
		ContentType:         contentType,
		AudienceLevel:       audience,
		Themes:              themes,
		AutoTags:            tags,
	}
}

func countMatches(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

func firstMatch(text string, sets []patternSet, fallback string) string {
	for _, s := range sets {
		if countMatches(text, s.terms) > 0 {
			return s.name
		}
	}
	return fallback
}

// extractThemes は4文字以上の語を出現回数の多い順に最大3件返す。同数の場合は先に出現した語を優先する。
func extractThemes(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) < minThemeLength {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })
	if len(order) > maxThemes {
		order = order[:maxThemes]
	}
	if order == nil {
		return []string{}
	}
	return order
}
