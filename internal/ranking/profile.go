package ranking

// FeedProfile はフィード種別ごとのスコアリング設定。
type FeedProfile struct {
	Name string
	// DecayRate は1日あたりの鮮度減点（3〜10）。
	DecayRate float64

	Keywords           []string
	TitleKeywordWeight float64
	BodyKeywordWeight  float64
	// MultiMatchBonus は2語以上一致した場合に一致数へ掛ける係数。
	MultiMatchBonus float64

	AlignedCategories []string
	AlignedTags       []string
	CategoryWeight    float64
	TagWeight         float64

	BreakingTerms []string
	BreakingBoost float64
}

// 組み込みプロファイル名
const (
	ProfileGeneral  = "general"
	ProfileConflict = "conflict"
	ProfileRegional = "regional"
)

// DefaultBreakingTerms は速報ブーストの対象となる語彙。
var DefaultBreakingTerms = []string{"breaking", "urgent", "alert"}

// ConflictKeywords は紛争フィード用の高優先キーワード。
var ConflictKeywords = []string{
	"iran", "israel", "airstrike", "missile", "gaza", "hezbollah", "idf", "irgc",
	"nuclear", "civilian casualties", "hospital", "breaking", "urgent", "attack",
	"bombing", "rocket", "drone", "ballistic", "precision strike", "operation",
	"escalation", "emergency", "evacuation", "humanitarian crisis", "refugee",
	"iron dome", "air defense", "regional spillover", "sanctions", "diplomacy",
}

func baseProfile(name string) FeedProfile {
	return FeedProfile{
		Name:               name,
		DecayRate:          10,
		TitleKeywordWeight: 25,
		BodyKeywordWeight:  15,
		MultiMatchBonus:    10,
		CategoryWeight:     10,
		TagWeight:          5,
		BreakingTerms:      DefaultBreakingTerms,
		BreakingBoost:      50,
	}
}

// DefaultProfiles は組み込みのフィードプロファイルを返す。
func DefaultProfiles() map[string]FeedProfile {
	general := baseProfile(ProfileGeneral)

	conflict := baseProfile(ProfileConflict)
	conflict.Keywords = ConflictKeywords
	conflict.AlignedCategories = []string{"war", "conflict", "world", "politics"}
	conflict.AlignedTags = []string{"urgent", "developing", "disaster", "politics", "global"}

	regional := baseProfile(ProfileRegional)
	regional.DecayRate = 5
	regional.Keywords = DefaultRegionProfile().Keywords
	regional.AlignedCategories = []string{"politics", "general", "business", "sports"}
	regional.AlignedTags = []string{"bangladesh", "asia", "south-asia"}

	return map[string]FeedProfile{
		ProfileGeneral:  general,
		ProfileConflict: conflict,
		ProfileRegional: regional,
	}
}

// ClampDecay は減衰率を許容範囲3〜10に丸める。0以下はデフォルトの10とする。
func ClampDecay(rate float64) float64 {
	switch {
	case rate <= 0:
		return 10
	case rate < 3:
		return 3
	case rate > 10:
		return 10
	}
	return rate
}
