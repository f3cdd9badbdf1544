package development

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
)

// mockArticleFinder はArticleFinderのテスト用モック。
type mockArticleFinder struct {
	findFn func(ctx context.Context, q *repository.Query) ([]model.Article, error)
	query  *repository.Query
}

func (m *mockArticleFinder) Find(ctx context.Context, q *repository.Query) ([]model.Article, error) {
	m.query = q
	return m.findFn(ctx, q)
}

func newTestService(finder ArticleFinder) *Service {
	s := NewService(finder, newTestAnalyzer(), slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
	s.now = func() time.Time { return testNow }
	return s
}

// TestServiceRun は対象記事の絞り込み・不正な記事のスキップ・並び順・件数上限をテストする。
func TestServiceRun(t *testing.T) {
	var articles []model.Article
	for i := range 9 {
		articles = append(articles, model.Article{
			ID:          fmt.Sprintf("m%d", i),
			Title:       "Troops deployment near border",
			Source:      "Random Blog",
			PublishedAt: testNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	articles = append(articles,
		model.Article{ID: "urgent", Title: "Breaking: missile strike on capital", Source: "Random Blog", PublishedAt: testNow},
		model.Article{ID: "quiet", Title: "Markets steady", PublishedAt: testNow},
		model.Article{ID: "broken", Title: "", PublishedAt: testNow},
	)
	finder := &mockArticleFinder{findFn: func(context.Context, *repository.Query) ([]model.Article, error) {
		return articles, nil
	}}

	res := newTestService(finder).Run(context.Background(), 0, 6)

	if !res.Success {
		t.Fatalf("Success = false: %s", res.Error)
	}
	if res.ArticlesAnalyzed != 11 {
		t.Errorf("ArticlesAnalyzed = %d, want 11", res.ArticlesAnalyzed)
	}
	if res.TotalDevelopments != 10 {
		t.Errorf("TotalDevelopments = %d, want 10", res.TotalDevelopments)
	}
	if len(res.Developments) != MaxDevelopments {
		t.Errorf("len(Developments) = %d, want %d", len(res.Developments), MaxDevelopments)
	}
	if first := res.Developments[0]; first.ArticleID != "urgent" || first.Urgency != UrgencyCritical {
		t.Errorf("first development = %+v, want the critical one", first)
	}
	if res.TimeRange != "6 hours" {
		t.Errorf("TimeRange = %q", res.TimeRange)
	}

	q := finder.query
	if q.Limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", q.Limit, DefaultLimit)
	}
	var sawCategory, sawCutoff bool
	for _, c := range q.Where {
		if c.Field == "category" && c.Op == repository.OpIn {
			sawCategory = slices.Contains(c.Value.([]string), "war")
		}
		if c.Field == "published_date" && c.Op == repository.OpGte {
			sawCutoff = c.Value.(time.Time).Equal(testNow.Add(-6 * time.Hour))
		}
	}
	if !sawCategory || !sawCutoff {
		t.Errorf("query conditions = %+v", q.Where)
	}
}

// TestServiceRun_EmptyAndFailure は対象記事がない場合と取得失敗時の結果をテストする。
func TestServiceRun_EmptyAndFailure(t *testing.T) {
	empty := &mockArticleFinder{findFn: func(context.Context, *repository.Query) ([]model.Article, error) {
		return nil, nil
	}}
	res := newTestService(empty).Run(context.Background(), 10, 0)
	if !res.Success || res.Developments == nil || len(res.Developments) != 0 {
		t.Errorf("empty result = %+v", res)
	}
	if res.TimeRange != "24 hours" {
		t.Errorf("TimeRange = %q, want default 24 hours", res.TimeRange)
	}

	failing := &mockArticleFinder{findFn: func(context.Context, *repository.Query) ([]model.Article, error) {
		return nil, errors.New("connection refused")
	}}
	res = newTestService(failing).Run(context.Background(), 10, 24)
	if res.Success || res.Error == "" {
		t.Errorf("failure result = %+v", res)
	}
}
