// Package cleanup は速報の期限切れスイープと古い速報の削除ジョブを提供する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays は非アクティブな速報を保持する日数。
const DefaultRetentionDays = 30

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Expirer は期限切れの速報を非アクティブにする。repository.BreakingNewsRepositoryが実装する。
type Expirer interface {
	Expire(ctx context.Context, now time.Time) (int64, error)
}

// Metrics は期限切れ件数の記録先。
type Metrics interface {
	RecordBreakingExpired(n int64)
}

// ExpiryJob は速報の期限切れスイープジョブ。
// 条件付き更新と条件付き削除のみで構成され、何度実行しても結果は変わらない。
type ExpiryJob struct {
	expirer Expirer
	db      Executor
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time

	// RetentionDays は非アクティブになった速報を削除するまでの日数。0以下は削除しない。
	RetentionDays int
}

// NewExpiryJob は新しいExpiryJobを生成する。dbがnilの場合は削除を行わない。
func NewExpiryJob(expirer Expirer, db Executor, logger *slog.Logger, metrics Metrics) *ExpiryJob {
	return &ExpiryJob{
		expirer:       expirer,
		db:            db,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run はexpires_atを過ぎたアクティブな速報を非アクティブにし、
// 保持期間を超えた非アクティブな速報を削除する。通知レコードはCASCADE削除される。
func (j *ExpiryJob) Run(ctx context.Context) error {
	start := j.now()

	expired, err := j.expirer.Expire(ctx, start)
	if err != nil {
		j.logger.Error("速報の期限切れスイープに失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れスイープの実行に失敗: %w", err)
	}
	if j.metrics != nil && expired > 0 {
		j.metrics.RecordBreakingExpired(expired)
	}

	var purged int64
	if j.db != nil && j.RetentionDays > 0 {
		cutoff := start.AddDate(0, 0, -j.RetentionDays)
		query := `DELETE FROM breaking_news WHERE is_active = false AND expires_at < $1`
		result, err := j.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			j.logger.Error("古い速報の削除に失敗しました",
				slog.String("error", err.Error()),
				slog.Int("retention_days", j.RetentionDays),
			)
			return fmt.Errorf("古い速報の削除に失敗: %w", err)
		}
		purged, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("削除件数の取得に失敗: %w", err)
		}
	}

	j.logger.Info("速報の期限切れスイープが完了しました",
		slog.Int64("expired_count", expired),
		slog.Int64("deleted_count", purged),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)
	return nil
}
