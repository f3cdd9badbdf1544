package breaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
	"github.com/hitoshi/newspulse/internal/security"
)

// 保存時の切り詰め上限（文字数）。
const (
	maxTitleLength       = 500
	maxDescriptionLength = 1000
	maxReportedErrors    = 5
)

// FeedFetcher は配信元のRSSを取得してパースする。
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// MonitorMetrics は監視パスの結果の記録先。
type MonitorMetrics interface {
	RecordSourceFetch(source string, ok bool)
	RecordBreakingDetected(level string)
	RecordMonitorRun(duration time.Duration, processed int)
}

// MonitorResult は監視パスの実行結果。トリガーAPIのレスポンスとしてそのまま返す。
type MonitorResult struct {
	Success           bool      `json:"success"`
	Message           string    `json:"message"`
	SourcesMonitored  int       `json:"sourcesMonitored"`
	BreakingNewsFound int       `json:"breakingNewsFound"`
	TotalProcessed    int       `json:"totalProcessed"`
	Expired           int64     `json:"expired"`
	Errors            []string  `json:"errors,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Monitor はアクティブな配信元を巡回して速報を検出・保存する。
type Monitor struct {
	sources    repository.SourceRepository
	items      repository.BreakingNewsRepository
	fetcher    FeedFetcher
	classifier *Classifier
	sanitizer  security.TextSanitizer
	metrics    MonitorMetrics
	logger     *slog.Logger
	now        func() time.Time

	// concurrency は同時に取得する配信元の数。
	concurrency int
}

// NewMonitor はMonitorを生成する。metricsはnilでもよい。
func NewMonitor(
	sources repository.SourceRepository,
	items repository.BreakingNewsRepository,
	fetcher FeedFetcher,
	classifier *Classifier,
	sanitizer security.TextSanitizer,
	metrics MonitorMetrics,
	logger *slog.Logger,
) *Monitor {
	return &Monitor{
		sources:     sources,
		items:       items,
		fetcher:     fetcher,
		classifier:  classifier,
		sanitizer:   sanitizer,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
		concurrency: 1,
	}
}

// WithConcurrency は同時に処理する配信元の数を設定する。1未満は1として扱う。
func (m *Monitor) WithConcurrency(n int) *Monitor {
	m.concurrency = max(n, 1)
	return m
}

// Run は監視パスを1回実行する。
// 配信元をpriority_weight降順に処理し、1件の配信元の失敗は他の配信元の処理を止めない。
// 同時に処理する配信元の数はWithConcurrencyで指定する。最後に期限切れスイープを実行する。
func (m *Monitor) Run(ctx context.Context) MonitorResult {
	start := m.now()

	sources, err := m.sources.ListActive(ctx)
	if err != nil {
		m.logger.Error("配信元一覧の取得に失敗しました", slog.String("error", err.Error()))
		return MonitorResult{
			Success:   false,
			Message:   err.Error(),
			Errors:    []string{err.Error()},
			Timestamp: start,
		}
	}
	if len(sources) == 0 {
		return MonitorResult{
			Success:   true,
			Message:   "No active breaking news sources found",
			Timestamp: start,
		}
	}

	// 集計は配信元の順序で行う
	perSource := make([]sourceStats, len(sources))
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				perSource[i].errors = []string{fmt.Sprintf("%s: %v", src.Name, err)}
				return nil
			}
			perSource[i] = m.monitorSource(ctx, src)
			return nil
		})
	}
	g.Wait()

	var found, processed int
	var errs []string
	for _, stats := range perSource {
		found += stats.found
		processed += stats.processed
		errs = append(errs, stats.errors...)
	}

	expired, err := m.items.Expire(ctx, m.now())
	if err != nil {
		m.logger.Error("期限切れ速報の更新に失敗しました", slog.String("error", err.Error()))
		errs = append(errs, err.Error())
	}

	duration := m.now().Sub(start)
	if m.metrics != nil {
		m.metrics.RecordMonitorRun(duration, processed)
	}
	m.logger.Info("速報監視パスが完了しました",
		slog.Int("sources", len(sources)),
		slog.Int("breaking_found", found),
		slog.Int("processed", processed),
		slog.Int64("expired", expired),
		slog.Int("errors", len(errs)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	return MonitorResult{
		Success: true,
		Message: fmt.Sprintf("Monitored %d sources, found %d breaking news items out of %d articles processed",
			len(sources), found, processed),
		SourcesMonitored:  len(sources),
		BreakingNewsFound: found,
		TotalProcessed:    processed,
		Expired:           expired,
		Errors:            errs,
		Timestamp:         start,
	}
}

type sourceStats struct {
	found     int
	processed int
	errors    []string
}

func (m *Monitor) monitorSource(ctx context.Context, src model.BreakingNewsSource) sourceStats {
	var stats sourceStats

	feed, err := m.fetcher.Fetch(ctx, src.RSSURL)
	if m.metrics != nil {
		m.metrics.RecordSourceFetch(src.Name, err == nil)
	}
	if err != nil {
		msg := fmt.Sprintf("Error monitoring %s: %v", src.Name, err)
		m.logger.Error("配信元の取得に失敗しました",
			slog.String("source", src.Name),
			slog.String("feed_url", src.RSSURL),
			slog.String("error", err.Error()),
		)
		stats.errors = append(stats.errors, msg)
		return stats
	}

	for _, raw := range m.convertItems(feed.Items) {
		stats.processed++
		created, err := m.processItem(ctx, src, raw)
		if err != nil {
			m.logger.Error("速報の保存に失敗しました",
				slog.String("source", src.Name),
				slog.String("url", raw.Link),
				slog.String("error", err.Error()),
			)
			stats.errors = append(stats.errors, fmt.Sprintf("%s: %v", src.Name, err))
			continue
		}
		if created {
			stats.found++
		}
	}

	rate := successRate(len(stats.errors), stats.processed)
	if err := m.sources.UpdateCheckResult(ctx, src.ID, m.now(), rate); err != nil {
		m.logger.Error("配信元の確認結果の更新に失敗しました",
			slog.String("source", src.Name),
			slog.String("error", err.Error()),
		)
	}
	return stats
}

// processItem は1件の記事候補を判定し、速報であれば保存する。保存した場合にtrueを返す。
func (m *Monitor) processItem(ctx context.Context, src model.BreakingNewsSource, raw RawItem) (bool, error) {
	if !m.classifier.Qualifies(raw.Title, raw.Description, src.KeywordsFilter) {
		return false, nil
	}

	exists, err := m.items.ExistsByURL(ctx, raw.Link)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	item, ok := m.classifier.Classify(ctx, raw, src)
	if !ok {
		return false, nil
	}
	alert := m.classifier.NewAlert(item)

	if err := m.items.Create(ctx, &item, &alert); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	if m.metrics != nil {
		m.metrics.RecordBreakingDetected(string(item.PriorityLevel))
	}
	m.logger.Info("速報を検出しました",
		slog.String("source", src.Name),
		slog.String("title", item.Title),
		slog.String("priority", string(item.PriorityLevel)),
		slog.Int("urgency", item.UrgencyScore),
	)
	return true, nil
}

// convertItems はgofeedの記事を整形済みの記事候補に変換する。タイトルかリンクのない記事は除外する。
func (m *Monitor) convertItems(items []*gofeed.Item) []RawItem {
	raws := make([]RawItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		link := strings.TrimSpace(it.Link)
		if link == "" && (strings.HasPrefix(it.GUID, "http://") || strings.HasPrefix(it.GUID, "https://")) {
			link = it.GUID
		}
		title := security.Truncate(m.sanitizer.StripHTML(it.Title), maxTitleLength)
		if title == "" || link == "" {
			continue
		}

		raw := RawItem{
			Title:       title,
			Description: security.Truncate(m.sanitizer.StripHTML(it.Description), maxDescriptionLength),
			Content:     m.sanitizer.StripHTML(it.Content),
			Link:        link,
			ImageURL:    extractImageURL(it),
		}
		switch {
		case it.PublishedParsed != nil:
			raw.PublishedAt = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			raw.PublishedAt = *it.UpdatedParsed
		default:
			raw.PublishedAt = m.now()
		}
		raws = append(raws, raw)
	}
	return raws
}

// extractImageURL はmedia拡張、enclosure、記事画像、説明文中の<img>の順で画像URLを探す。
func extractImageURL(it *gofeed.Item) string {
	if media, ok := it.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range media[name] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	return firstImageSrc(it.Description)
}

// firstImageSrc はHTML断片の最初の<img>のsrcを返す。
func firstImageSrc(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// successRate はエラーがなければ1.0、あれば 1 - エラー数/処理件数（下限0）を返す。
func successRate(errorCount, processed int) float64 {
	if errorCount == 0 {
		return 1.0
	}
	if processed == 0 {
		return 0
	}
	rate := 1.0 - float64(errorCount)/float64(processed)
	if rate < 0 {
		return 0
	}
	return rate
}
