package breaking

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
	"github.com/hitoshi/newspulse/internal/repository"
)

// 表示用一覧の既定値。
const (
	DisplayMinUrgency = 60
	DisplayLimit      = 6
	// displayOverfetch は表示フィルタで除外される分を見込んだ取得倍率。
	displayOverfetch = 4
)

// ActiveItem は表示用の速報と配信元ティア。
type ActiveItem struct {
	model.BreakingNewsItem
	SourceTier model.SourceTier
}

// Service は表示用の速報一覧を提供する。
type Service struct {
	repo    repository.BreakingNewsRepository
	sources *ranking.SourceRanker
	now     func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.BreakingNewsRepository, sources *ranking.SourceRanker) *Service {
	return &Service{repo: repo, sources: sources, now: time.Now}
}

// ListActive はアクティブかつ期限内で緊急度60以上の速報のうち、
// 配信元ティアによる表示フィルタを通過したものを優先度・新しい順に最大limit件返す。
func (s *Service) ListActive(ctx context.Context, limit int) ([]ActiveItem, error) {
	if limit <= 0 {
		limit = DisplayLimit
	}
	now := s.now()

	// 除外が多く上限に届かない場合は、行が尽きるまで取得件数を広げて取り直す。
	var result []ActiveItem
	for fetch := limit * displayOverfetch; ; fetch *= 2 {
		items, err := s.repo.ListActive(ctx, DisplayMinUrgency, now, fetch)
		if err != nil {
			return nil, fmt.Errorf("速報一覧の取得に失敗しました: %w", err)
		}
		result = s.admitted(items, now, limit)
		if len(result) >= limit || len(items) < fetch {
			break
		}
	}

	slices.SortStableFunc(result, func(a, b ActiveItem) int {
		if d := b.PriorityLevel.Severity() - a.PriorityLevel.Severity(); d != 0 {
			return d
		}
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// admitted は有効期限内で表示フィルタを通過した速報を返す。
func (s *Service) admitted(items []model.BreakingNewsItem, now time.Time, limit int) []ActiveItem {
	result := make([]ActiveItem, 0, limit)
	for _, it := range items {
		if !it.IsActive || !it.ExpiresAt.After(now) {
			continue
		}
		tier := s.sources.Classify(it.Source)
		if !Admit(it.UrgencyScore, tier) {
			continue
		}
		result = append(result, ActiveItem{BreakingNewsItem: it, SourceTier: tier})
	}
	return result
}
