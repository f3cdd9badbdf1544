package tagging

import (
	"slices"

	"github.com/hitoshi/newspulse/internal/model"
)

// Pattern はタグと、そのタグを示す語彙の組。
type Pattern struct {
	Slug     string
	Name     string
	Category string
	Terms    []string
}

// DefaultPatterns は語彙によるタグ判定に使うパターン一覧。判定はこの順序で行う。
var DefaultPatterns = []Pattern{
	{Slug: "technology", Name: "Technology", Category: "industry", Terms: []string{
		"ai", "artificial intelligence", "machine learning", "blockchain", "cryptocurrency",
		"software", "app", "digital", "cyber", "tech", "innovation", "startup",
		"internet", "online", "mobile", "computer", "data", "algorithm",
	}},
	{Slug: "healthcare", Name: "Healthcare", Category: "industry", Terms: []string{
		"health", "medical", "hospital", "doctor", "patient", "medicine", "treatment",
		"vaccine", "disease", "covid", "pandemic", "healthcare", "clinic", "surgery",
	}},
	{Slug: "finance", Name: "Finance", Category: "industry", Terms: []string{
		"bank", "banking", "loan", "credit", "investment", "stock", "market", "economy",
		"financial", "money", "currency", "trade", "business", "profit", "revenue",
	}},
	{Slug: "education", Name: "Education", Category: "industry", Terms: []string{
		"school", "university", "student", "teacher", "education", "academic", "exam",
		"graduation", "scholarship", "learning", "curriculum", "research",
	}},
	{Slug: "agriculture", Name: "Agriculture", Category: "industry", Terms: []string{
		"farm", "farmer", "crop", "harvest", "agriculture", "rice", "wheat", "food",
		"irrigation", "pesticide", "fertilizer", "livestock", "fishing",
	}},
	{Slug: "energy", Name: "Energy", Category: "industry", Terms: []string{
		"power", "electricity", "energy", "solar", "renewable", "coal", "gas", "oil",
		"nuclear", "grid", "utility", "fuel", "battery",
	}},
	{Slug: "textiles", Name: "Textiles", Category: "industry", Terms: []string{
		"garments", "textile", "rmg", "clothing", "fashion", "fabric", "export",
		"apparel", "manufacturing", "factory",
	}},
	{Slug: "bangladesh", Name: "Bangladesh", Category: "region", Terms: []string{
		"bangladesh", "bengal", "dhaka", "chittagong", "sylhet", "rajshahi", "khulna",
		"barisal", "rangpur", "mymensingh", "bengali", "bangla",
	}},
	{Slug: "asia", Name: "Asia", Category: "region", Terms: []string{
		"asia", "asian", "india", "china", "pakistan", "myanmar", "thailand", "vietnam",
		"indonesia", "malaysia", "singapore", "japan", "korea",
	}},
	{Slug: "global", Name: "Global", Category: "region", Terms: []string{
		"international", "global", "worldwide", "world", "united nations", "un", "foreign",
	}},
	{Slug: "politics", Name: "Politics", Category: "topic", Terms: []string{
		"government", "minister", "parliament", "election", "vote", "political",
		"policy", "law", "legislation", "prime minister", "president", "party",
	}},
	{Slug: "sports", Name: "Sports", Category: "topic", Terms: []string{
		"cricket", "football", "soccer", "match", "tournament", "championship",
		"olympics", "sports", "player", "team", "game", "victory", "defeat",
	}},
	{Slug: "crime", Name: "Crime", Category: "topic", Terms: []string{
		"police", "arrest", "crime", "murder", "theft", "robbery", "court", "trial",
		"investigation", "criminal", "law enforcement", "justice",
	}},
	{Slug: "weather", Name: "Weather", Category: "topic", Terms: []string{
		"weather", "rain", "flood", "cyclone", "storm", "temperature", "climate",
		"drought", "monsoon", "disaster", "natural disaster",
	}},
	{Slug: "election", Name: "Election", Category: "event", Terms: []string{
		"election", "vote", "ballot", "candidate", "campaign", "polling", "electoral",
	}},
	{Slug: "protest", Name: "Protest", Category: "event", Terms: []string{
		"protest", "demonstration", "rally", "march", "strike", "movement", "activist",
	}},
	{Slug: "disaster", Name: "Disaster", Category: "event", Terms: []string{
		"disaster", "emergency", "rescue", "evacuation", "damage", "casualties",
		"relief", "aid", "humanitarian",
	}},
	{Slug: "conference", Name: "Conference", Category: "event", Terms: []string{
		"conference", "summit", "meeting", "forum", "symposium", "convention",
	}},
}

// ConflictTag は紛争カテゴリの記事に常に付与するタグ。
const ConflictTag = "middle-east-war"

// conflictCategories は紛争用のパターンでタグを判定する記事カテゴリ。
var conflictCategories = []string{"war", "conflict", "middle-east", "middle-east-war"}

// IsConflictCategory は記事カテゴリ（小文字）が紛争カテゴリかを返す。
func IsConflictCategory(category string) bool {
	return slices.Contains(conflictCategories, category)
}

// ConflictCategories は紛争カテゴリの一覧を返す。
func ConflictCategories() []string {
	return slices.Clone(conflictCategories)
}

// ConflictPatterns は紛争記事のタグ判定に使うパターン一覧。
var ConflictPatterns = []Pattern{
	{Slug: "iran-israel-airstrike", Name: "Iran-Israel Airstrike", Category: "conflict", Terms: []string{"iran", "israel", "airstrike", "air strike", "bombing", "attack"}},
	{Slug: "missile-barrage", Name: "Missile Barrage", Category: "conflict", Terms: []string{"missile", "barrage", "rocket", "projectile", "ballistic"}},
	{Slug: "sejjil-missile", Name: "Sejjil Missile", Category: "conflict", Terms: []string{"sejjil", "sejil"}},
	{Slug: "ballistic-drone-attacks", Name: "Ballistic & Drone Attacks", Category: "conflict", Terms: []string{"drone", "uav", "unmanned", "ballistic"}},
	{Slug: "civilian-casualties", Name: "Civilian Casualties", Category: "conflict", Terms: []string{"civilian", "casualties", "deaths", "killed", "wounded", "injured"}},
	{Slug: "hospital-damage", Name: "Hospital Damage", Category: "conflict", Terms: []string{"hospital", "medical", "clinic", "healthcare", "damage"}},
	{Slug: "idf", Name: "IDF", Category: "conflict", Terms: []string{"idf", "israel defense forces", "israeli military", "israeli army"}},
	{Slug: "irgc", Name: "IRGC", Category: "conflict", Terms: []string{"irgc", "revolutionary guard", "iranian guard", "quds force"}},
	{Slug: "hezbollah-involvement-warning", Name: "Hezbollah Involvement Warning", Category: "conflict", Terms: []string{"hezbollah", "hizbollah", "lebanon", "lebanese"}},
	{Slug: "iron-dome", Name: "Iron Dome", Category: "conflict", Terms: []string{"iron dome", "missile defense", "air defense", "interception"}},
	{Slug: "gaza-humanitarian-crisis", Name: "Gaza Humanitarian Crisis", Category: "conflict", Terms: []string{"gaza", "humanitarian", "crisis", "aid", "relief"}},
	{Slug: "palestinian-casualties", Name: "Palestinian Casualties", Category: "conflict", Terms: []string{"palestinian", "gaza", "west bank", "palestine"}},
	{Slug: "nuclear-contamination", Name: "Nuclear Contamination", Category: "conflict", Terms: []string{"nuclear", "radiation", "contamination", "radioactive"}},
	{Slug: "un-emergency-sessions", Name: "UN Emergency Sessions", Category: "conflict", Terms: []string{"un", "united nations", "security council", "emergency"}},
	{Slug: "regional-spillover", Name: "Regional Spillover", Category: "conflict", Terms: []string{"regional", "spillover", "escalation", "expansion"}},
	{Slug: "energy-market-impact", Name: "Energy Market Impact", Category: "conflict", Terms: []string{"oil", "energy", "market", "price", "petroleum"}},
	{Slug: "cyber-sabotage", Name: "Cyber Sabotage", Category: "conflict", Terms: []string{"cyber", "hacking", "digital", "internet", "network"}},
	{Slug: "refugee-displacement", Name: "Refugee Displacement", Category: "conflict", Terms: []string{"refugee", "displaced", "evacuation", "flee"}},
	{Slug: "airspace-closure", Name: "Airspace Closure", Category: "conflict", Terms: []string{"airspace", "flight", "aviation", "airport", "closure"}},
	{Slug: "precision-strikes", Name: "Precision Strikes", Category: "conflict", Terms: []string{"precision", "targeted", "surgical", "strike"}},
	{Slug: "f35-participation", Name: "F-35 Participation", Category: "conflict", Terms: []string{"f-35", "f35", "fighter jet", "aircraft"}},
	{Slug: "operation-rising-lion", Name: "Operation Rising Lion", Category: "conflict", Terms: []string{"operation rising lion", "rising lion"}},
	{Slug: "operation-true-promise-ii", Name: "Operation True Promise II", Category: "conflict", Terms: []string{"operation true promise", "true promise"}},
	{Slug: "operation-days-of-repentance", Name: "Operation Days of Repentance", Category: "conflict", Terms: []string{"days of repentance", "operation days"}},
	{Slug: "yemen-houthi-attack", Name: "Yemen Houthi Attack", Category: "conflict", Terms: []string{"yemen", "houthi", "ansarullah", "yemeni"}},
	{Slug: "strait-of-hormuz-stakes", Name: "Strait of Hormuz Stakes", Category: "conflict", Terms: []string{"strait of hormuz", "hormuz", "persian gulf"}},
	{Slug: "sanctions-enforcement", Name: "Sanctions Enforcement", Category: "conflict", Terms: []string{"sanctions", "embargo", "economic pressure"}},
	{Slug: "expert-analysis", Name: "Expert Analysis", Category: "conflict", Terms: []string{"expert", "analysis", "analyst", "commentary"}},
	{Slug: "breaking-news", Name: "Breaking News", Category: "category", Terms: []string{"breaking", "urgent", "alert", "developing"}},
}

// categoryAlignments はタグと、関連する記事カテゴリ（部分一致）の対応。
var categoryAlignments = map[string][]string{
	"technology":    {"technology", "tech"},
	"politics":      {"politics", "political"},
	"sports":        {"sports", "sport"},
	"healthcare":    {"health", "medical"},
	"finance":       {"business", "finance", "economy"},
	"education":     {"education", "academic"},
	"entertainment": {"entertainment", "culture"},
}

// regionAlignments はタグと、関連する記事地域（部分一致）の対応。
var regionAlignments = map[string][]string{
	"bangladesh": {"asia", "south asia"},
	"asia":       {"asia"},
	"global":     {"global", "world", "international"},
}

// categoryTags は記事カテゴリから常に付与するタグ。
var categoryTags = map[string]string{
	"politics":      "politics",
	"sports":        "sports",
	"technology":    "technology",
	"health":        "healthcare",
	"business":      "finance",
	"entertainment": "entertainment",
	"general":       "breaking-news",
}

// regionTags は記事地域から常に付与するタグ。
var regionTags = map[string]string{
	"asia":          "asia",
	"south asia":    "south-asia",
	"global":        "global",
	"international": "global",
}

// timeSensitivity は時間的な緊急性を示すタグと語彙。先に一致したものを採用する。
var timeSensitivity = []struct {
	slug  string
	terms []string
}{
	{"urgent", []string{"breaking", "urgent", "alert"}},
	{"developing", []string{"developing", "ongoing", "continues"}},
	{"trending", []string{"trending", "viral", "popular"}},
}

// 固定タグのスコア。
const (
	categoryTagScore = 90
	regionTagScore   = 85
	timeTagScore     = 75
	conflictTagScore = 95
)

// Catalog は付与され得るすべてのタグを返す。
func Catalog() []model.Tag {
	tags := make([]model.Tag, 0, len(DefaultPatterns)+len(ConflictPatterns)+8)
	seen := make(map[string]struct{})
	add := func(slug, name, category string) {
		if _, ok := seen[slug]; ok {
			return
		}
		seen[slug] = struct{}{}
		tags = append(tags, model.Tag{Slug: slug, Name: name, Category: category})
	}

	for _, p := range DefaultPatterns {
		add(p.Slug, p.Name, p.Category)
	}
	add("entertainment", "Entertainment", "category")
	add("breaking-news", "Breaking News", "category")
	add("south-asia", "South Asia", "region")
	add("urgent", "Urgent", "time")
	add("developing", "Developing", "time")
	add("trending", "Trending", "time")
	for _, p := range ConflictPatterns {
		add(p.Slug, p.Name, p.Category)
	}
	add(ConflictTag, "Middle East War", "conflict")
	return tags
}
