package breaking

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// mockSourceRepo はSourceRepositoryのテスト用モック。
type mockSourceRepo struct {
	listActiveFn func(ctx context.Context) ([]model.BreakingNewsSource, error)

	mu      sync.Mutex
	updated map[string]float64
}

func (m *mockSourceRepo) ListActive(ctx context.Context) ([]model.BreakingNewsSource, error) {
	return m.listActiveFn(ctx)
}

func (m *mockSourceRepo) UpdateCheckResult(_ context.Context, id string, _ time.Time, rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updated == nil {
		m.updated = make(map[string]float64)
	}
	m.updated[id] = rate
	return nil
}

// mockBreakingRepo はURLで重複排除するBreakingNewsRepositoryのインメモリモック。
type mockBreakingRepo struct {
	createFn     func(item *model.BreakingNewsItem) error
	listActiveFn func(ctx context.Context, minUrgency int, now time.Time, limit int) ([]model.BreakingNewsItem, error)

	mu          sync.Mutex
	byURL       map[string]model.BreakingNewsItem
	alerts      []model.BreakingNewsAlert
	expireCalls int
}

func newMockBreakingRepo() *mockBreakingRepo {
	return &mockBreakingRepo{byURL: make(map[string]model.BreakingNewsItem)}
}

func (m *mockBreakingRepo) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byURL[url]
	return ok, nil
}

func (m *mockBreakingRepo) Create(_ context.Context, item *model.BreakingNewsItem, alert *model.BreakingNewsAlert) error {
	if m.createFn != nil {
		if err := m.createFn(item); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byURL[item.ArticleURL]; ok {
		return repository.ErrDuplicate
	}
	m.byURL[item.ArticleURL] = *item
	if alert != nil {
		m.alerts = append(m.alerts, *alert)
	}
	return nil
}

func (m *mockBreakingRepo) ListActive(ctx context.Context, minUrgency int, now time.Time, limit int) ([]model.BreakingNewsItem, error) {
	return m.listActiveFn(ctx, minUrgency, now, limit)
}

func (m *mockBreakingRepo) Expire(_ context.Context, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireCalls++
	return 0, nil
}

// mockFetcher はFeedFetcherのテスト用モック。
type mockFetcher struct {
	fetchFn func(ctx context.Context, url string) (*gofeed.Feed, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	return m.fetchFn(ctx, url)
}

// mockUrgency はUrgencyScorerのテスト用モック。
type mockUrgency struct {
	urgencyFn func(title, description string, credibility float64) (int, error)
}

func (m *mockUrgency) Urgency(_ context.Context, title, description string, credibility float64) (int, error) {
	return m.urgencyFn(title, description, credibility)
}

// mockMonitorMetrics はMonitorMetricsのテスト用モック。
type mockMonitorMetrics struct {
	fetches  map[string]bool
	detected []string
	runs     int
}

func (m *mockMonitorMetrics) RecordSourceFetch(source string, ok bool) {
	if m.fetches == nil {
		m.fetches = make(map[string]bool)
	}
	m.fetches[source] = ok
}

func (m *mockMonitorMetrics) RecordBreakingDetected(level string) {
	m.detected = append(m.detected, level)
}

func (m *mockMonitorMetrics) RecordMonitorRun(_ time.Duration, _ int) { m.runs++ }

func newTestClassifier(urgency UrgencyScorer) *Classifier {
	c := NewClassifier(urgency, newTestLogger())
	c.now = func() time.Time { return testNow }
	n := 0
	c.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return c
}
