package recommend

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// mockPreferenceStore はPreferenceStoreのインメモリモック。
type mockPreferenceStore struct {
	getErr error
	setErr error

	mu   sync.Mutex
	data map[string][]model.UserPreference
}

func newMockPreferenceStore() *mockPreferenceStore {
	return &mockPreferenceStore{data: make(map[string][]model.UserPreference)}
}

func (m *mockPreferenceStore) Get(_ context.Context, clientID string) ([]model.UserPreference, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prefs := append([]model.UserPreference{}, m.data[clientID]...)
	return prefs, nil
}

func (m *mockPreferenceStore) Set(_ context.Context, clientID string, prefs []model.UserPreference) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[clientID] = append([]model.UserPreference{}, prefs...)
	return nil
}

func (m *mockPreferenceStore) Remove(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, clientID)
	return nil
}

var _ repository.PreferenceStore = (*mockPreferenceStore)(nil)

// mockPreferenceLister はPreferenceListerのテスト用モック。
type mockPreferenceLister struct {
	listFn func(ctx context.Context, clientID string) ([]model.UserPreference, error)
}

func (m *mockPreferenceLister) List(ctx context.Context, clientID string) ([]model.UserPreference, error) {
	return m.listFn(ctx, clientID)
}

func staticPrefs(prefs ...model.UserPreference) *mockPreferenceLister {
	return &mockPreferenceLister{listFn: func(context.Context, string) ([]model.UserPreference, error) {
		return prefs, nil
	}}
}

// mockArticleFinder はArticleFinderのテスト用モック。呼び出し回数を数える。
type mockArticleFinder struct {
	findFn func(ctx context.Context, q *repository.Query) ([]model.Article, error)
	calls  atomic.Int32
}

func (m *mockArticleFinder) Find(ctx context.Context, q *repository.Query) ([]model.Article, error) {
	m.calls.Add(1)
	return m.findFn(ctx, q)
}

// mockRecommendMetrics はMetricsのテスト用モック。
type mockRecommendMetrics struct {
	mu        sync.Mutex
	statuses  []string
	durations int
}

func (m *mockRecommendMetrics) RecordRecommendCache(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func (m *mockRecommendMetrics) RecordRecommendDuration(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations++
}

func testArticle(id, category, source, region, title string, published time.Time) model.Article {
	return model.Article{
		ID:          id,
		Title:       title,
		URL:         "https://news.test/" + id,
		Source:      source,
		Category:    category,
		Region:      region,
		PublishedAt: published,
	}
}
