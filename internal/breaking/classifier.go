// Package breaking は速報の判定・緊急度算出・監視・表示フィルタを提供する。
package breaking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
)

// BreakingTerms は速報であることを示す語彙。
var BreakingTerms = []string{
	"breaking", "urgent", "alert", "emergency", "immediate",
	"missile strike", "airstrike", "bombing", "attack", "explosion",
	"casualties", "killed", "wounded", "dead", "injured",
	"nuclear", "chemical", "radiation", "evacuation", "shelter",
	"ceasefire", "peace talks", "escalation", "retaliation",
}

// ConflictTerms は監視対象の紛争に関連する語彙。
var ConflictTerms = []string{
	"iran", "israel", "gaza", "hamas", "hezbollah", "idf", "irgc",
	"tehran", "jerusalem", "tel aviv", "beirut", "damascus",
	"middle east", "persian gulf", "strait of hormuz",
}

// 緊急度と優先度の境界。
const (
	CriticalThreshold = 80
	HighThreshold     = 60
)

// RawItem はRSSから取り出し、HTML除去と切り詰めを済ませた記事候補。
type RawItem struct {
	Title       string
	Description string
	Content     string
	Link        string
	ImageURL    string
	PublishedAt time.Time
}

// Classifier は記事候補が速報に該当するかを判定し、速報レコードを組み立てる。
type Classifier struct {
	breaking []string
	conflict []string
	keywords ranking.KeywordMatcher
	urgency  UrgencyScorer
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewClassifier はClassifierを生成する。urgencyがnilの場合はDefaultUrgencyScorerを使う。
func NewClassifier(urgency UrgencyScorer, logger *slog.Logger) *Classifier {
	if urgency == nil {
		urgency = NewDefaultUrgencyScorer()
	}
	return &Classifier{
		breaking: BreakingTerms,
		conflict: ConflictTerms,
		keywords: ranking.SubstringKeywordMatcher{},
		urgency:  urgency,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Qualifies は速報語彙を含み、かつ紛争語彙または配信元のキーワードフィルタに一致する場合にtrueを返す。
func (c *Classifier) Qualifies(title, description string, sourceKeywords []string) bool {
	text := strings.ToLower(title + " " + description)
	if len(c.keywords.Matches(text, c.breaking)) == 0 {
		return false
	}
	return len(c.keywords.Matches(text, c.conflict)) > 0 ||
		len(c.keywords.Matches(text, sourceKeywords)) > 0
}

// ExtractKeywords は一致した速報語彙と紛争語彙を重複なく返す。
func (c *Classifier) ExtractKeywords(title, description string) []string {
	text := strings.ToLower(title + " " + description)
	found := c.keywords.Matches(text, c.breaking)
	for _, kw := range c.keywords.Matches(text, c.conflict) {
		if !containsString(found, kw) {
			found = append(found, kw)
		}
	}
	if found == nil {
		return []string{}
	}
	return found
}

// PriorityLevelFor は緊急度を優先度に変換する。
func PriorityLevelFor(urgency int) model.PriorityLevel {
	switch {
	case urgency >= CriticalThreshold:
		return model.PriorityCritical
	case urgency >= HighThreshold:
		return model.PriorityHigh
	default:
		return model.PriorityMedium
	}
}

// Classify は記事候補を判定し、該当する場合は速報レコードを返す。
// 該当しない場合はfalseを返す。緊急度の算出に失敗した場合はFallbackUrgencyを使う。
func (c *Classifier) Classify(ctx context.Context, raw RawItem, src model.BreakingNewsSource) (model.BreakingNewsItem, bool) {
	if raw.Title == "" || raw.Link == "" {
		return model.BreakingNewsItem{}, false
	}
	if !c.Qualifies(raw.Title, raw.Description, src.KeywordsFilter) {
		c.logger.Debug("速報の条件に該当しないためスキップしました",
			slog.String("source", src.Name),
			slog.String("url", raw.Link),
		)
		return model.BreakingNewsItem{}, false
	}

	urgency, err := c.urgency.Urgency(ctx, raw.Title, raw.Description, src.CredibilityScore)
	if err != nil {
		c.logger.Warn("緊急度の算出に失敗したため既定値を使用します",
			slog.String("source", src.Name),
			slog.String("url", raw.Link),
			slog.String("error", err.Error()),
		)
		urgency = FallbackUrgency
	}
	urgency = clampUrgency(urgency)

	now := c.now()
	published := raw.PublishedAt
	if published.IsZero() {
		published = now
	}

	return model.BreakingNewsItem{
		ID:            c.newID(),
		Title:         raw.Title,
		Description:   raw.Description,
		FullText:      raw.Content,
		ArticleURL:    raw.Link,
		ImageURL:      raw.ImageURL,
		Source:        src.Name,
		PriorityLevel: PriorityLevelFor(urgency),
		UrgencyScore:  urgency,
		Keywords:      c.ExtractKeywords(raw.Title, raw.Description),
		IsActive:      true,
		PublishedAt:   published,
		ExpiresAt:     now.Add(model.BreakingNewsTTL),
		CreatedAt:     now,
	}, true
}

// NewAlert は速報検出時の通知レコードを組み立てる。
func (c *Classifier) NewAlert(item model.BreakingNewsItem) model.BreakingNewsAlert {
	return model.BreakingNewsAlert{
		ID:             c.newID(),
		BreakingNewsID: item.ID,
		AlertType:      "new",
		Message:        "Breaking: " + item.Title,
		Severity:       item.PriorityLevel,
		CreatedAt:      item.CreatedAt,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
