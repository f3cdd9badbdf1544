// Package development は紛争記事から最新の動向（停戦・人道・外交・軍事・民間人被害）を抽出する。
package development

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
	"github.com/hitoshi/newspulse/internal/security"
)

// Category は動向の分類。
type Category string

const (
	Ceasefire    Category = "ceasefire"
	Humanitarian Category = "humanitarian"
	Diplomatic   Category = "diplomatic"
	Military     Category = "military"
	Civilian     Category = "civilian"
)

// Urgency は動向の緊急度。
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// rank は緊急度の順位。大きいほど緊急。
func (u Urgency) rank() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	default:
		return 1
	}
}

// 信頼度の規則。
const (
	baseConfidence       = 50
	confidencePerKeyword = 15
	urgencyPerIndicator  = 10
	tier1Confidence      = 20
	maxConfidence        = 95
	maxSummaryRunes      = 120
)

// Development は記事1件から抽出した動向。
type Development struct {
	ID          string    `json:"id"`
	ArticleID   string    `json:"articleId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Urgency     Urgency   `json:"urgency"`
	Timestamp   time.Time `json:"timestamp"`
	Sources     []string  `json:"sources"`
	Confidence  int       `json:"confidence"`
	Keywords    []string  `json:"keywords"`
}

// categoryPattern は分類ごとの語彙と既定の見出し。
type categoryPattern struct {
	category Category
	keywords []string
	headline string
}

// categoryPatterns は分類の判定順。一致語数が同じ場合は先の分類を採用する。
var categoryPatterns = []categoryPattern{
	{Ceasefire, []string{
		"ceasefire", "truce", "peace talks", "negotiation", "mediation", "agreement",
		"diplomatic solution", "peace process", "talks resume", "dialogue", "armistice",
	}, "CEASEFIRE TALKS"},
	{Humanitarian, []string{
		"humanitarian aid", "medical supplies", "food assistance", "refugee",
		"displaced", "evacuation", "relief convoy", "red cross", "un aid",
		"emergency assistance", "shelter", "water shortage", "civilian casualties",
	}, "HUMANITARIAN AID"},
	{Diplomatic, []string{
		"diplomatic", "ambassador", "foreign minister", "summit", "meeting",
		"international community", "un security council", "sanctions",
		"diplomatic pressure", "international law", "mediation", "envoy",
	}, "DIPLOMATIC PROGRESS"},
	{Military, []string{
		"military", "forces", "troops", "deployment", "operation", "strike",
		"attack", "defense", "offensive", "strategic", "tactical", "combat",
		"airstrike", "missile", "bombing", "rocket",
	}, "MILITARY UPDATE"},
	{Civilian, []string{
		"civilian", "casualties", "hospital", "school", "infrastructure",
		"power grid", "water supply", "residential", "non-combatant",
		"evacuation", "shelter", "humanitarian crisis",
	}, "CIVILIAN IMPACT"},
}

// urgencyIndicators は緊急度の判定順。最初に一致した緊急度を採用する。
var urgencyIndicators = []struct {
	urgency Urgency
	terms   []string
}{
	{UrgencyCritical, []string{"breaking", "urgent", "emergency", "immediate", "critical", "alert", "major escalation"}},
	{UrgencyHigh, []string{"important", "significant", "major", "substantial", "escalating", "serious"}},
	{UrgencyMedium, []string{"developing", "ongoing", "continues", "reports indicate", "sources say"}},
	{UrgencyLow, []string{"minor", "small", "limited", "isolated", "local"}},
}

// TierClassifier は配信元名のティアを判定する。
type TierClassifier interface {
	Classify(sourceName string) model.SourceTier
}

// Analyzer は記事の語彙から動向を判定する。
type Analyzer struct {
	tiers     TierClassifier
	keywords  ranking.KeywordMatcher
	sanitizer security.TextSanitizer
	newID     func() string
}

// NewAnalyzer はAnalyzerを生成する。tiersがnilの場合は組み込みのティアリストを使う。
func NewAnalyzer(tiers TierClassifier) *Analyzer {
	if tiers == nil {
		tiers = ranking.NewDefaultSourceRanker()
	}
	return &Analyzer{
		tiers:     tiers,
		keywords:  ranking.SubstringKeywordMatcher{},
		sanitizer: security.NewContentSanitizer(),
		newID:     uuid.NewString,
	}
}

// Analyze は記事から動向を抽出する。どの分類の語彙にも一致しない場合はfalse。
func (an *Analyzer) Analyze(a model.Article) (Development, bool) {
	content := a.Text()

	var best categoryPattern
	var matched []string
	for _, p := range categoryPatterns {
		if m := an.keywords.Matches(content, p.keywords); len(m) > len(matched) {
			best, matched = p, m
		}
	}
	if len(matched) == 0 {
		return Development{}, false
	}

	urgency, urgencyScore := UrgencyLow, 0
	for _, ind := range urgencyIndicators {
		if m := an.keywords.Matches(content, ind.terms); len(m) > 0 {
			urgency, urgencyScore = ind.urgency, len(m)*urgencyPerIndicator
			break
		}
	}

	confidence := baseConfidence + len(matched)*confidencePerKeyword + urgencyScore
	if an.tiers.Classify(a.Source) == model.Tier1 {
		confidence += tier1Confidence
	}

	return Development{
		ID:          "dev-" + an.newID(),
		ArticleID:   a.ID,
		Title:       headline(best, content),
		Description: an.summary(a, best.category, matched),
		Category:    best.category,
		Urgency:     urgency,
		Timestamp:   a.PublishedAt,
		Sources:     []string{a.Source},
		Confidence:  min(confidence, maxConfidence),
		Keywords:    matched,
	}, true
}

// headline は分類と本文の語から見出しを選ぶ。該当がなければ分類の既定の見出し。
func headline(p categoryPattern, content string) string {
	has := func(terms ...string) bool {
		return slices.ContainsFunc(terms, func(t string) bool { return strings.Contains(content, t) })
	}
	switch p.category {
	case Ceasefire:
		if has("breakthrough", "agreement") {
			return "PEACE BREAKTHROUGH"
		}
	case Humanitarian:
		if has("convoy", "delivery") {
			return "HUMANITARIAN AID"
		}
		if has("evacuation") {
			return "EMERGENCY EVACUATION"
		}
	case Military:
		if has("reduced", "pullback") {
			return "MILITARY PULLBACK"
		}
		if has("escalation") {
			return "MILITARY ESCALATION"
		}
	}
	return p.headline
}

// summary は分類と一致語から動向の要約文を選ぶ。
// 該当する定型文がない場合は概要のHTMLを除去して切り詰める。
func (an *Analyzer) summary(a model.Article, category Category, matched []string) string {
	content := a.Text()
	anyMatched := func(fragments ...string) bool {
		return slices.ContainsFunc(matched, func(k string) bool {
			return slices.ContainsFunc(fragments, func(f string) bool { return strings.Contains(k, f) })
		})
	}

	switch category {
	case Ceasefire:
		if anyMatched("talks", "negotiation", "mediation") {
			if strings.Contains(content, "resume") {
				return "Negotiations have resumed with international mediators present. Both sides report cautious optimism."
			}
			if strings.Contains(content, "progress") || strings.Contains(content, "breakthrough") {
				return "Significant progress reported in peace negotiations with potential breakthrough imminent."
			}
			return "Diplomatic efforts continue as parties engage in ceasefire discussions."
		}
	case Humanitarian:
		if strings.Contains(content, "convoy") {
			return "New convoy reaches affected areas with medical supplies and food assistance."
		}
		if slices.Contains(matched, "evacuation") {
			return "Emergency evacuation operations underway to move civilians from conflict zones."
		}
		if anyMatched("aid", "relief", "assistance") {
			return "Humanitarian organizations mobilize resources to assist affected populations."
		}
	case Diplomatic:
		if slices.Contains(matched, "summit") || slices.Contains(matched, "meeting") {
			return "Regional leaders express support for ongoing peace initiatives and dialogue."
		}
		if slices.Contains(matched, "sanctions") {
			return "International community considers additional diplomatic measures and sanctions."
		}
		return "Diplomatic channels remain active as international pressure mounts for resolution."
	case Military:
		desc := strings.ToLower(a.Description)
		if strings.Contains(desc, "reduced") || strings.Contains(desc, "decrease") || strings.Contains(desc, "pullback") {
			return "International observers report reduced military activity along disputed borders."
		}
		if slices.Contains(matched, "deployment") {
			return "Military forces adjust positions as strategic situation evolves."
		}
		return "Military developments continue to shape the operational landscape."
	case Civilian:
		if slices.Contains(matched, "hospital") {
			return "Medical facilities report increased casualties requiring urgent international assistance."
		}
		if slices.Contains(matched, "infrastructure") {
			return "Critical infrastructure damage affects civilian population access to essential services."
		}
		return "Civilian population faces mounting challenges as conflict impacts daily life."
	}

	text := an.sanitizer.StripHTML(a.Description)
	if len([]rune(text)) > maxSummaryRunes {
		return security.Truncate(text, maxSummaryRunes-3) + "..."
	}
	return text
}

// Sort は動向を緊急度の高い順、同じ緊急度では信頼度の高い順に並べる。
func Sort(devs []Development) {
	slices.SortStableFunc(devs, func(a, b Development) int {
		if d := b.Urgency.rank() - a.Urgency.rank(); d != 0 {
			return d
		}
		return b.Confidence - a.Confidence
	})
}
