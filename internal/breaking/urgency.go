package breaking

import (
	"context"
	"math"
	"strings"
)

// FallbackUrgency は緊急度の算出に失敗した場合に使う値。
const FallbackUrgency = 50

// UrgencyScorer は速報の緊急度（0〜100）を算出する。
type UrgencyScorer interface {
	Urgency(ctx context.Context, title, description string, credibility float64) (int, error)
}

// DefaultUrgencyScorer はプロセス内で緊急度を算出するUrgencyScorer。
// データベース関数 calculate_urgency_score と同じ規則を使う:
// 基礎点30、一致した速報語彙1語につき+10（最大40）、タイトルに速報語彙があれば+10、
// 配信元の信頼度（0〜1）×20。
type DefaultUrgencyScorer struct {
	terms []string
}

// NewDefaultUrgencyScorer はBreakingTermsを使うDefaultUrgencyScorerを生成する。
func NewDefaultUrgencyScorer() *DefaultUrgencyScorer {
	return &DefaultUrgencyScorer{terms: BreakingTerms}
}

var _ UrgencyScorer = (*DefaultUrgencyScorer)(nil)

// Urgency は緊急度を返す。エラーを返すことはない。
func (s *DefaultUrgencyScorer) Urgency(_ context.Context, title, description string, credibility float64) (int, error) {
	lowerTitle := strings.ToLower(title)
	text := lowerTitle + " " + strings.ToLower(description)

	matched := 0
	inTitle := false
	for _, term := range s.terms {
		if strings.Contains(text, term) {
			matched++
		}
		if strings.Contains(lowerTitle, term) {
			inTitle = true
		}
	}

	score := 30.0 + math.Min(float64(matched*10), 40)
	if inTitle {
		score += 10
	}
	score += math.Max(0, math.Min(credibility, 1)) * 20

	return clampUrgency(int(math.Round(score))), nil
}

func clampUrgency(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
