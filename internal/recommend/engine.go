package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
)

// エンジンの既定値。
const (
	DefaultTimeout   = 2 * time.Second
	DefaultBatchSize = 100
	DefaultLimit     = 3
	// AllCategories はカテゴリで絞り込まないことを表すカテゴリ名。
	AllCategories = "Today"
)

// タイムアウト時にResult.Errorへ設定するメッセージ。
const timeoutMessage = "Request timeout - recommendations unavailable"

// ArticleFinder は候補記事の取得元。
type ArticleFinder interface {
	Find(ctx context.Context, q *repository.Query) ([]model.Article, error)
}

// PreferenceLister はクライアントの嗜好リストの取得元。
type PreferenceLister interface {
	List(ctx context.Context, clientID string) ([]model.UserPreference, error)
}

// Metrics はおすすめ算出の記録先。
type Metrics interface {
	RecordRecommendCache(status string)
	RecordRecommendDuration(d time.Duration)
}

// Request はおすすめ取得の条件。
type Request struct {
	Category     string
	ExcludeIDs   []string
	Limit        int
	ForceRefresh bool
}

// Result はおすすめ取得の結果。タイムアウトや取得失敗はErrorに設定し、空の結果を返す。
type Result struct {
	Recommendations    []model.Recommendation `json:"recommendations"`
	HasRecommendations bool                   `json:"hasRecommendations"`
	CacheStatus        CacheStatus            `json:"cacheStatus"`
	Timestamp          time.Time              `json:"timestamp"`
	LastUpdate         time.Time              `json:"lastUpdate"`
	Error              string                 `json:"error,omitempty"`
}

// Options はEngineの設定。0値の項目には既定値を使う。
type Options struct {
	Timeout   time.Duration
	BatchSize int
	MinScore  int
}

// Engine は嗜好履歴に基づいて候補記事をスコアリングし、結果をキャッシュする。
// 同じキーへの同時リクエストは1回の取得にまとめる。
type Engine struct {
	articles ArticleFinder
	prefs    PreferenceLister
	cache    *Cache
	group    singleflight.Group
	metrics  Metrics
	logger   *slog.Logger

	timeout   time.Duration
	batchSize int
	minScore  int
	now       func() time.Time
}

// NewEngine はEngineを生成する。metricsはnilでもよい。
func NewEngine(articles ArticleFinder, prefs PreferenceLister, cache *Cache, metrics Metrics, logger *slog.Logger, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	return &Engine{
		articles:  articles,
		prefs:     prefs,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		timeout:   opts.Timeout,
		batchSize: opts.BatchSize,
		minScore:  opts.MinScore,
		now:       time.Now,
	}
}

// fetchOutcome は共有される取得処理の結果。entryがnilの場合は嗜好がない。
type fetchOutcome struct {
	entry  *CacheEntry
	status CacheStatus
}

// GetRecommendations はクライアントのおすすめ記事を返す。
// 嗜好がない場合は候補記事を取得せず空の結果を返す。
func (e *Engine) GetRecommendations(ctx context.Context, clientID string, req Request) Result {
	start := e.now()
	req = normalizeRequest(req)

	key := clientID + "|" + CacheKey(req.Category, req.ExcludeIDs)

	status := CacheMiss
	if !req.ForceRefresh {
		entry, s := e.cache.Get(key)
		if s == CacheHit {
			e.recordCache(CacheHit)
			return e.resultFrom(entry, CacheHit, req.Limit, start)
		}
		status = s
	}

	ch := e.group.DoChan(key, func() (any, error) {
		// 待機中に別の呼び出しが結果を保存している場合はそれを使う
		if !req.ForceRefresh {
			if entry, s := e.cache.Get(key); s == CacheHit {
				return fetchOutcome{entry: entry, status: CacheHit}, nil
			}
		}
		// 嗜好を読む前に予約し、以後の嗜好変更による無効化を検知する
		rsv := e.cache.Reserve(key, clientID, req.Category)
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		entry, err := e.fetch(fctx, clientID, req, rsv)
		if err != nil {
			e.cache.Release(rsv)
			return nil, err
		}
		return fetchOutcome{entry: entry, status: status}, nil
	})

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, context.DeadlineExceeded) {
				return e.timeoutResult(clientID, start)
			}
			e.logger.Error("おすすめ記事の算出に失敗しました",
				slog.String("client_id", clientID),
				slog.String("category", req.Category),
				slog.String("error", res.Err.Error()),
			)
			return e.emptyResult(start, res.Err.Error())
		}
		out := res.Val.(fetchOutcome)
		if out.entry == nil {
			return e.emptyResult(start, "")
		}
		e.recordCache(out.status)
		if e.metrics != nil {
			e.metrics.RecordRecommendDuration(e.now().Sub(start))
		}
		return e.resultFrom(out.entry, out.status, req.Limit, start)
	case <-timer.C:
		return e.timeoutResult(clientID, start)
	case <-ctx.Done():
		return e.emptyResult(start, ctx.Err().Error())
	}
}

// fetch は嗜好リストと候補記事を取得・スコアリングし、予約が有効ならキャッシュに保存する。
// 嗜好がない場合はnilを返す。
func (e *Engine) fetch(ctx context.Context, clientID string, req Request, rsv *Reservation) (*CacheEntry, error) {
	prefs, err := e.prefs.List(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("嗜好リストの取得に失敗しました: %w", err)
	}
	if len(prefs) == 0 {
		e.cache.Release(rsv)
		return nil, nil
	}

	q := repository.Select(repository.TableArticles).
		Order("published_date", true).
		WithLimit(e.batchSize)
	if req.Category != AllCategories {
		q.Filter("category", repository.OpEq, strings.ToLower(req.Category))
	}
	if len(req.ExcludeIDs) > 0 {
		q.Filter("id", repository.OpNotIn, req.ExcludeIDs)
	}

	articles, err := e.articles.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("候補記事の取得に失敗しました: %w", err)
	}

	recs := e.rank(articles, BuildProfile(prefs))

	entry, stored := e.cache.Commit(rsv, CacheEntry{
		Data:       recs,
		ClientID:   clientID,
		Category:   req.Category,
		ExcludeIDs: req.ExcludeIDs,
	})
	e.logger.Info("おすすめ記事を算出しました",
		slog.String("client_id", clientID),
		slog.String("category", req.Category),
		slog.Int("candidates", len(articles)),
		slog.Int("recommended", len(recs)),
		slog.Bool("cached", stored),
	)
	return entry, nil
}

// rank は候補記事をスコアリングし、閾値未満を除外してスコア降順に並べる。
// 不正な記事はスキップする。
func (e *Engine) rank(articles []model.Article, profile Profile) []model.Recommendation {
	now := e.now()
	recs := make([]model.Recommendation, 0, len(articles))
	for _, a := range articles {
		if err := a.Validate(); err != nil {
			e.logger.Warn("不正な記事をスキップしました", slog.String("error", err.Error()))
			continue
		}
		rec := Score(a, profile, now)
		if rec.Score < e.minScore {
			continue
		}
		recs = append(recs, rec)
	}
	slices.SortStableFunc(recs, func(a, b model.Recommendation) int {
		return b.Score - a.Score
	})
	return recs
}

// Invalidate は指定カテゴリのキャッシュを削除する。空の場合はすべて削除する。
func (e *Engine) Invalidate(category string) int {
	return e.invalidate(categoryMatcher(category))
}

// InvalidateClient は指定クライアントのキャッシュを削除する。嗜好の変更時に呼び出す。
// 取得中の結果は保存されず、以後のリクエストはその取得に合流しない。
func (e *Engine) InvalidateClient(clientID string) int {
	return e.invalidate(clientMatcher(clientID))
}

func (e *Engine) invalidate(match func(clientID, category string) bool) int {
	n, pending := e.cache.invalidate(match)
	for _, key := range pending {
		e.group.Forget(key)
	}
	return n
}

// CacheStats はキャッシュの状態を返す。
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

func (e *Engine) resultFrom(entry *CacheEntry, status CacheStatus, limit int, start time.Time) Result {
	recs := entry.Data
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return Result{
		Recommendations:    slices.Clone(recs),
		HasRecommendations: len(recs) > 0,
		CacheStatus:        status,
		Timestamp:          start,
		LastUpdate:         entry.Timestamp,
	}
}

func (e *Engine) emptyResult(start time.Time, errMsg string) Result {
	return Result{
		Recommendations: []model.Recommendation{},
		CacheStatus:     CacheMiss,
		Timestamp:       start,
		Error:           errMsg,
	}
}

func (e *Engine) timeoutResult(clientID string, start time.Time) Result {
	e.logger.Warn("おすすめ記事の算出がタイムアウトしました",
		slog.String("client_id", clientID),
		slog.Float64("timeout_ms", float64(e.timeout.Milliseconds())),
	)
	return e.emptyResult(start, timeoutMessage)
}

func (e *Engine) recordCache(status CacheStatus) {
	if e.metrics != nil {
		e.metrics.RecordRecommendCache(string(status))
	}
}

func normalizeRequest(req Request) Request {
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		req.Category = AllCategories
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	ids := make([]string, 0, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	req.ExcludeIDs = ids
	return req
}
