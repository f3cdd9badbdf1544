package breaking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
)

func newTestService(repo *mockBreakingRepo) *Service {
	s := NewService(repo, ranking.NewDefaultSourceRanker())
	s.now = func() time.Time { return testNow }
	return s
}

func activeItem(id, source string, urgency int, published time.Time) model.BreakingNewsItem {
	return model.BreakingNewsItem{
		ID:            id,
		Title:         "item " + id,
		Source:        source,
		UrgencyScore:  urgency,
		PriorityLevel: PriorityLevelFor(urgency),
		IsActive:      true,
		PublishedAt:   published,
		ExpiresAt:     testNow.Add(time.Hour),
	}
}

// TestServiceListActive_AdmissionAndOrder は配信元ティアによる表示フィルタと並び順をテストする。
func TestServiceListActive_AdmissionAndOrder(t *testing.T) {
	repo := newMockBreakingRepo()
	var gotMin, gotLimit int
	repo.listActiveFn = func(_ context.Context, minUrgency int, now time.Time, limit int) ([]model.BreakingNewsItem, error) {
		gotMin, gotLimit = minUrgency, limit
		if !now.Equal(testNow) {
			t.Errorf("now = %v, want %v", now, testNow)
		}
		expired := activeItem("expired", "Reuters", 95, testNow)
		expired.ExpiresAt = testNow.Add(-time.Minute)
		inactive := activeItem("inactive", "Reuters", 95, testNow)
		inactive.IsActive = false
		return []model.BreakingNewsItem{
			activeItem("high-old", "Daily Star", 70, testNow.Add(-3*time.Hour)),
			activeItem("crit-blog", "Some Blog", 90, testNow),
			activeItem("crit-reuters", "Reuters", 85, testNow.Add(-2*time.Hour)),
			activeItem("high-new", "Daily Star", 65, testNow.Add(-time.Hour)),
			activeItem("high-blog", "Some Blog", 65, testNow),
			activeItem("crit-tier2", "Daily Star", 82, testNow),
			expired,
			inactive,
		}, nil
	}

	got, err := newTestService(repo).ListActive(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}

	if gotMin != DisplayMinUrgency {
		t.Errorf("minUrgency = %d, want %d", gotMin, DisplayMinUrgency)
	}
	if gotLimit != DisplayLimit*displayOverfetch {
		t.Errorf("limit = %d, want %d", gotLimit, DisplayLimit*displayOverfetch)
	}

	want := []string{"crit-reuters", "high-new", "high-old"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), ids(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[0].SourceTier != model.Tier1 || got[1].SourceTier != model.Tier2 {
		t.Errorf("tiers = %s, %s", got[0].SourceTier, got[1].SourceTier)
	}
}

// TestServiceListActive_Limit は件数の上限をテストする。
func TestServiceListActive_Limit(t *testing.T) {
	repo := newMockBreakingRepo()
	repo.listActiveFn = func(context.Context, int, time.Time, int) ([]model.BreakingNewsItem, error) {
		var items []model.BreakingNewsItem
		for i := 0; i < 10; i++ {
			items = append(items, activeItem(string(rune('a'+i)), "BBC News", 90, testNow.Add(-time.Duration(i)*time.Minute)))
		}
		return items, nil
	}

	got, err := newTestService(repo).ListActive(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "a" || got[2].ID != "c" {
		t.Errorf("ids = %v, want newest first", ids(got))
	}
}

// TestServiceListActive_RepositoryError はリポジトリのエラーを返すことをテストする。
func TestServiceListActive_RepositoryError(t *testing.T) {
	repo := newMockBreakingRepo()
	dbErr := errors.New("db down")
	repo.listActiveFn = func(context.Context, int, time.Time, int) ([]model.BreakingNewsItem, error) {
		return nil, dbErr
	}

	if _, err := newTestService(repo).ListActive(context.Background(), 6); !errors.Is(err, dbErr) {
		t.Errorf("err = %v, want wrapped db error", err)
	}
}

func ids(items []ActiveItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// TestServiceListActive_ExtendsFetchPastRejectedItems は先頭の取得分が表示フィルタで
// すべて除外されても、後続の通過する速報まで取得を広げることをテストする。
func TestServiceListActive_ExtendsFetchPastRejectedItems(t *testing.T) {
	var store []model.BreakingNewsItem
	for i := 0; i < 40; i++ {
		store = append(store, activeItem(fmt.Sprintf("blog-%02d", i), "Some Blog", 90, testNow.Add(-time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 10; i++ {
		store = append(store, activeItem(fmt.Sprintf("reuters-%02d", i), "Reuters", 90, testNow.Add(-time.Duration(60+i)*time.Minute)))
	}

	repo := newMockBreakingRepo()
	var limits []int
	repo.listActiveFn = func(_ context.Context, _ int, _ time.Time, limit int) ([]model.BreakingNewsItem, error) {
		limits = append(limits, limit)
		return store[:min(limit, len(store))], nil
	}

	got, err := newTestService(repo).ListActive(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(got) != DisplayLimit {
		t.Fatalf("len = %d, want %d (%v)", len(got), DisplayLimit, ids(got))
	}
	for i, it := range got {
		if want := fmt.Sprintf("reuters-%02d", i); it.ID != want {
			t.Errorf("got[%d] = %s, want %s", i, it.ID, want)
		}
	}
	if len(limits) < 2 {
		t.Errorf("fetch calls = %v, want the fetch to grow beyond the first %d rows", limits, DisplayLimit*displayOverfetch)
	}
}

// TestServiceListActive_StopsWhenRowsExhausted は行が尽きた時点で取得を打ち切ることをテストする。
func TestServiceListActive_StopsWhenRowsExhausted(t *testing.T) {
	store := []model.BreakingNewsItem{
		activeItem("blog", "Some Blog", 90, testNow),
		activeItem("reuters", "Reuters", 90, testNow.Add(-time.Minute)),
	}
	repo := newMockBreakingRepo()
	calls := 0
	repo.listActiveFn = func(_ context.Context, _ int, _ time.Time, limit int) ([]model.BreakingNewsItem, error) {
		calls++
		return store[:min(limit, len(store))], nil
	}

	got, err := newTestService(repo).ListActive(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "reuters" {
		t.Errorf("ids = %v, want [reuters]", ids(got))
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
