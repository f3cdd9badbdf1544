// Package fetch は速報配信元のRSSフィード取得を提供する。
// SSRF検証、タイムアウト、サイズ上限、最大1回の再試行、gofeedによるパースを行う。
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/hitoshi/newspulse/internal/security"
)

// ErrEmptyFeed はレスポンス本文が空であることを表す。
var ErrEmptyFeed = errors.New("RSSフィードの内容が空です")

// Metrics はフェッチ結果の記録先。
type Metrics interface {
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
}

// Fetcher は配信元のRSSを取得してパースする。
type Fetcher struct {
	guard       security.SSRFGuardService
	logger      *slog.Logger
	metrics     Metrics
	timeout     time.Duration
	maxBodySize int64
	retry       RetryPolicy
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewFetcher はFetcherを生成する。metricsはnilでもよい。
func NewFetcher(guard security.SSRFGuardService, logger *slog.Logger, metrics Metrics, timeout time.Duration, maxBodySize int64) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxBodySize <= 0 {
		maxBodySize = 5 * 1024 * 1024
	}
	return &Fetcher{
		guard:       guard,
		logger:      logger,
		metrics:     metrics,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		retry:       DefaultRetryPolicy(),
		sleep:       sleepContext,
	}
}

// WithRetryPolicy は再試行方針を差し替える。
func (f *Fetcher) WithRetryPolicy(p RetryPolicy) *Fetcher {
	f.retry = p
	return f
}

// Fetch はフィードを取得してパースする。
// 接続エラーと429/5xxは最大RetryPolicy.MaxRetries回まで再試行する。
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if err := f.guard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗しました: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Warn("配信元の取得を再試行します",
				slog.String("feed_url", feedURL),
				slog.Int("attempt", attempt+1),
				slog.String("error", lastErr.Error()),
			)
			if err := f.sleep(ctx, f.retry.Delay); err != nil {
				return nil, err
			}
		}

		feed, err := f.fetchOnce(ctx, feedURL)
		if err == nil {
			return feed, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", "NewsPulseMonitor/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	client := f.guard.NewSafeClient(f.timeout, f.maxBodySize)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if f.metrics != nil {
		f.metrics.RecordHTTPStatus(resp.StatusCode)
		f.metrics.RecordFetchLatency(time.Since(start))
	}

	switch ClassifyHTTPStatus(resp.StatusCode) {
	case FetchResultOK:
	case FetchResultRetry:
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode, Retryable: true, Err: errors.New(resp.Status)}
	default:
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Retryable: true, Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &FetchError{URL: feedURL, Err: ErrEmptyFeed}
	}

	body, err = decodeBody(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("フィードのパースに失敗しました: %w", err)}
	}

	f.logger.Debug("配信元を取得しました",
		slog.String("feed_url", feedURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("items", len(feed.Items)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return feed, nil
}

// xmlPrologSize はXML宣言のencoding指定を探す先頭バイト数。
const xmlPrologSize = 256

// decodeBody はContent-TypeのcharsetがUTF-8以外で、XML宣言にencodingがない場合に本文をUTF-8へ変換する。
// XML宣言にencodingがある場合はgofeedの変換に任せる。
func decodeBody(body []byte, contentType string) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	if label == "" || label == "utf-8" || label == "utf8" {
		return body, nil
	}
	if bytes.Contains(body[:min(len(body), xmlPrologSize)], []byte("encoding=")) {
		return body, nil
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("未対応の文字コードです: %s: %w", label, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("文字コードの変換に失敗しました: %w", err)
	}
	return decoded, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
