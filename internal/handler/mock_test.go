package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newspulse/internal/breaking"
	"github.com/hitoshi/newspulse/internal/development"
	"github.com/hitoshi/newspulse/internal/feed"
	"github.com/hitoshi/newspulse/internal/middleware"
	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/recommend"
	"github.com/hitoshi/newspulse/internal/tagging"
	"github.com/hitoshi/newspulse/internal/translate"
)

// --- モック定義 ---

// mockArticleService はArticleServiceInterfaceのモック実装。
type mockArticleService struct {
	listPageFn func(ctx context.Context, req feed.Request) (feed.Page, error)
}

func (m *mockArticleService) ListPage(ctx context.Context, req feed.Request) (feed.Page, error) {
	if m.listPageFn != nil {
		return m.listPageFn(ctx, req)
	}
	return feed.Page{}, nil
}

// mockBreakingService はBreakingServiceInterfaceのモック実装。
type mockBreakingService struct {
	listActiveFn func(ctx context.Context, limit int) ([]breaking.ActiveItem, error)
}

func (m *mockBreakingService) ListActive(ctx context.Context, limit int) ([]breaking.ActiveItem, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, limit)
	}
	return nil, nil
}

// mockRecommendationService はRecommendationServiceInterfaceのモック実装。
type mockRecommendationService struct {
	requestFn func(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error)
}

func (m *mockRecommendationService) Request(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error) {
	if m.requestFn != nil {
		return m.requestFn(ctx, clientID, req)
	}
	return recommend.Result{}, nil
}

// mockPreferenceService はPreferenceServiceInterfaceのモック実装。
type mockPreferenceService struct {
	listFn   func(ctx context.Context, clientID string) ([]model.UserPreference, error)
	addFn    func(ctx context.Context, clientID string, article model.Article) (model.UserPreference, error)
	removeFn func(ctx context.Context, clientID, articleID string) error
	clearFn  func(ctx context.Context, clientID string) error
}

func (m *mockPreferenceService) List(ctx context.Context, clientID string) ([]model.UserPreference, error) {
	if m.listFn != nil {
		return m.listFn(ctx, clientID)
	}
	return nil, nil
}

func (m *mockPreferenceService) Add(ctx context.Context, clientID string, article model.Article) (model.UserPreference, error) {
	if m.addFn != nil {
		return m.addFn(ctx, clientID, article)
	}
	return model.UserPreference{ArticleID: article.ID, Title: article.Title}, nil
}

func (m *mockPreferenceService) Remove(ctx context.Context, clientID, articleID string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, clientID, articleID)
	}
	return nil
}

func (m *mockPreferenceService) Clear(ctx context.Context, clientID string) error {
	if m.clearFn != nil {
		return m.clearFn(ctx, clientID)
	}
	return nil
}

// mockArticleLookup はArticleLookupのモック実装。
type mockArticleLookup struct {
	articles map[string]model.Article
	err      error
}

func (m *mockArticleLookup) FindByID(_ context.Context, id string) (*model.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.articles[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// mockInvalidator はRecommendationInvalidatorのモック実装。
type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidateClient(clientID string) int {
	m.invalidated = append(m.invalidated, clientID)
	return 1
}

// mockMonitor はMonitorRunnerのモック実装。
type mockMonitor struct {
	runFn func(ctx context.Context) breaking.MonitorResult
}

func (m *mockMonitor) Run(ctx context.Context) breaking.MonitorResult {
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	return breaking.MonitorResult{Success: true}
}

// mockTagger はTaggingRunnerのモック実装。
type mockTagger struct {
	runFn func(ctx context.Context, limit int, force bool) tagging.Result
}

func (m *mockTagger) Run(ctx context.Context, limit int, force bool) tagging.Result {
	if m.runFn != nil {
		return m.runFn(ctx, limit, force)
	}
	return tagging.Result{Success: true}
}

// mockTranslation はTranslationRunnerのモック実装。
type mockTranslation struct {
	runFn func(ctx context.Context, limit int, force bool) translate.Result
}

func (m *mockTranslation) Run(ctx context.Context, limit int, force bool) translate.Result {
	if m.runFn != nil {
		return m.runFn(ctx, limit, force)
	}
	return translate.Result{Success: true}
}

// mockDevelopments はDevelopmentRunnerのモック実装。
type mockDevelopments struct {
	runFn func(ctx context.Context, limit, hours int) development.Result
}

func (m *mockDevelopments) Run(ctx context.Context, limit, hours int) development.Result {
	if m.runFn != nil {
		return m.runFn(ctx, limit, hours)
	}
	return development.Result{Success: true}
}

// mockPinger はPingerのモック実装。
type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.err
}

// --- テストヘルパー ---

// withClientID はリクエストコンテキストにクライアントIDを設定する。
func withClientID(r *http.Request, clientID string) *http.Request {
	return r.WithContext(middleware.ContextWithClientID(r.Context(), clientID))
}

// withChiURLParam はchiのURLパラメータを設定する。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
