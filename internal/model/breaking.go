package model

import "time"

// PriorityLevel は速報の優先度を表す。
type PriorityLevel string

const (
	// PriorityCritical は緊急度80以上。
	PriorityCritical PriorityLevel = "critical"
	// PriorityHigh は緊急度60以上80未満。
	PriorityHigh PriorityLevel = "high"
	// PriorityMedium は緊急度60未満。
	PriorityMedium PriorityLevel = "medium"
)

// Severity は表示順序に使う重み。大きいほど優先。
func (p PriorityLevel) Severity() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	default:
		return 1
	}
}

// BreakingNewsTTL は速報の有効期間。
const BreakingNewsTTL = 24 * time.Hour

// BreakingNewsItem は監視パスで検出された速報を表す。
// 正規URLで重複排除され、ExpiresAtを過ぎるか期限切れスイープで非アクティブになる。
type BreakingNewsItem struct {
	ID            string
	Title         string
	Description   string
	FullText      string
	ArticleURL    string
	ImageURL      string
	Source        string
	PriorityLevel PriorityLevel
	UrgencyScore  int
	Keywords      []string
	IsActive      bool
	PublishedAt   time.Time
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// BreakingNewsSource は速報監視対象のRSS配信元を表す。
type BreakingNewsSource struct {
	ID               string
	Name             string
	RSSURL           string
	CredibilityScore float64 // 0.0〜1.0
	PriorityWeight   int
	KeywordsFilter   []string
	IsActive         bool
	LastChecked      *time.Time
	SuccessRate      float64
}

// BreakingNewsAlert は速報検出時に作成される通知レコードを表す。
type BreakingNewsAlert struct {
	ID             string
	BreakingNewsID string
	AlertType      string
	Message        string
	Severity       PriorityLevel
	CreatedAt      time.Time
}
