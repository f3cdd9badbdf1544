// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newspulse"

// Collector はPrometheusメトリクスを収集する実装。
// RSS取得・速報監視・おすすめ・ジョブ実行・HTTPの各層から利用する。
type Collector struct {
	sourceFetch       *prometheus.CounterVec
	upstreamStatus    *prometheus.CounterVec
	fetchLatency      prometheus.Histogram
	breakingDetected  *prometheus.CounterVec
	breakingExpired   prometheus.Counter
	monitorDuration   prometheus.Histogram
	monitorProcessed  prometheus.Counter
	recommendCache    *prometheus.CounterVec
	recommendDuration prometheus.Histogram
	jobRuns           *prometheus.CounterVec
	jobSkipped        *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	httpDuration      *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sourceFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_total",
			Help:      "配信元ごとのRSS取得結果の合計数",
		}, []string{"source", "result"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_http_status_total",
			Help:      "RSS取得時のHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_latency_seconds",
			Help:      "RSS取得のレイテンシ（秒）",
			Buckets:   prometheus.DefBuckets,
		}),
		breakingDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaking_detected_total",
			Help:      "優先度別の検出された速報の合計数",
		}, []string{"priority"}),
		breakingExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaking_expired_total",
			Help:      "期限切れで非アクティブにした速報の合計数",
		}),
		monitorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "monitor_run_duration_seconds",
			Help:      "速報監視パス1回の処理時間（秒）",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		monitorProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_items_processed_total",
			Help:      "速報監視で処理したRSS項目の合計数",
		}),
		recommendCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_cache_total",
			Help:      "おすすめキャッシュの参照結果（hit/miss/expired）",
		}, []string{"status"}),
		recommendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "おすすめ算出パイプラインの処理時間（秒）",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "定期ジョブの実行回数",
		}, []string{"job", "result"}),
		jobSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_skipped_total",
			Help:      "前回の実行が終わっていないため見送った定期ジョブの回数",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "定期ジョブの処理時間（秒）",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "APIリクエストの処理時間（秒）",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
	}

	reg.MustRegister(
		c.sourceFetch,
		c.upstreamStatus,
		c.fetchLatency,
		c.breakingDetected,
		c.breakingExpired,
		c.monitorDuration,
		c.monitorProcessed,
		c.recommendCache,
		c.recommendDuration,
		c.jobRuns,
		c.jobSkipped,
		c.jobDuration,
		c.httpDuration,
	)

	return c
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordHTTPStatus はRSS取得時のHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はRSS取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordSourceFetch は配信元ごとの取得結果を記録する。
func (c *Collector) RecordSourceFetch(source string, ok bool) {
	c.sourceFetch.WithLabelValues(source, resultLabel(ok)).Inc()
}

// RecordBreakingDetected は検出した速報を優先度別に記録する。
func (c *Collector) RecordBreakingDetected(level string) {
	c.breakingDetected.WithLabelValues(level).Inc()
}

// RecordBreakingExpired は期限切れにした速報の件数を記録する。
func (c *Collector) RecordBreakingExpired(n int64) {
	c.breakingExpired.Add(float64(n))
}

// RecordMonitorRun は監視パスの処理時間と処理件数を記録する。
func (c *Collector) RecordMonitorRun(duration time.Duration, processed int) {
	c.monitorDuration.Observe(duration.Seconds())
	c.monitorProcessed.Add(float64(processed))
}

// RecordRecommendCache はおすすめキャッシュの参照結果を記録する。
func (c *Collector) RecordRecommendCache(status string) {
	c.recommendCache.WithLabelValues(status).Inc()
}

// RecordRecommendDuration はおすすめ算出の処理時間を記録する。
func (c *Collector) RecordRecommendDuration(d time.Duration) {
	c.recommendDuration.Observe(d.Seconds())
}

// RecordJobRun は定期ジョブの実行結果と処理時間を記録する。
func (c *Collector) RecordJobRun(job string, d time.Duration, ok bool) {
	c.jobRuns.WithLabelValues(job, resultLabel(ok)).Inc()
	c.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// RecordJobSkipped は実行を見送った定期ジョブを記録する。
func (c *Collector) RecordJobSkipped(job string) {
	c.jobSkipped.WithLabelValues(job).Inc()
}

// RecordHTTPRequest はAPIリクエストの処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// ワーカープロセスのメトリクス公開に使う。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
