package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/newspulse/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反エラーコード。
const pqUniqueViolation = "23505"

// PostgresBreakingNewsRepo はPostgreSQLを使用した速報リポジトリ。
type PostgresBreakingNewsRepo struct {
	db *sql.DB
}

// NewPostgresBreakingNewsRepo はPostgresBreakingNewsRepoを生成する。
func NewPostgresBreakingNewsRepo(db *sql.DB) *PostgresBreakingNewsRepo {
	return &PostgresBreakingNewsRepo{db: db}
}

var _ BreakingNewsRepository = (*PostgresBreakingNewsRepo)(nil)

// ExistsByURL は同じ記事URLの速報が存在するかを返す。
func (r *PostgresBreakingNewsRepo) ExistsByURL(ctx context.Context, articleURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM breaking_news WHERE article_url = $1)`,
		articleURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("速報の重複確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create は速報と通知レコードを同一トランザクションで作成する。
// ExistsByURLとの間で競合した場合も一意制約によりErrDuplicateとなる。
func (r *PostgresBreakingNewsRepo) Create(ctx context.Context, item *model.BreakingNewsItem, alert *model.BreakingNewsAlert) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO breaking_news
		   (id, title, description, full_text, article_url, image_url, source,
		    priority_level, urgency_score, keywords, is_active, published_date, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		item.ID, item.Title, nullString(item.Description), nullString(item.FullText),
		item.ArticleURL, nullString(item.ImageURL), item.Source,
		string(item.PriorityLevel), item.UrgencyScore, pq.Array(item.Keywords),
		item.IsActive, item.PublishedAt, item.ExpiresAt, item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("速報の作成に失敗しました: %w", err)
	}

	if alert != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO breaking_news_alerts (id, breaking_news_id, alert_type, alert_message, severity, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			alert.ID, alert.BreakingNewsID, alert.AlertType, alert.Message, string(alert.Severity), alert.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("速報通知の作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// ListActive はアクティブかつ期限内の速報を優先度・新しい順に返す。
func (r *PostgresBreakingNewsRepo) ListActive(ctx context.Context, minUrgency int, now time.Time, limit int) ([]model.BreakingNewsItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, full_text, article_url, image_url, source,
		        priority_level, urgency_score, keywords, is_active, published_date, expires_at, created_at
		 FROM breaking_news
		 WHERE is_active = true AND expires_at > $1 AND urgency_score >= $2
		 ORDER BY CASE priority_level WHEN 'critical' THEN 3 WHEN 'high' THEN 2 ELSE 1 END DESC,
		          published_date DESC
		 LIMIT $3`,
		now, minUrgency, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("速報一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []model.BreakingNewsItem
	for rows.Next() {
		var it model.BreakingNewsItem
		var description, fullText, imageURL sql.NullString
		var level string
		var keywords pq.StringArray
		if err := rows.Scan(
			&it.ID, &it.Title, &description, &fullText, &it.ArticleURL, &imageURL, &it.Source,
			&level, &it.UrgencyScore, &keywords, &it.IsActive, &it.PublishedAt, &it.ExpiresAt, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("速報の読み込みに失敗しました: %w", err)
		}
		it.Description = nullStringValue(description)
		it.FullText = nullStringValue(fullText)
		it.ImageURL = nullStringValue(imageURL)
		it.PriorityLevel = model.PriorityLevel(level)
		it.Keywords = []string(keywords)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("速報一覧の読み込みに失敗しました: %w", err)
	}
	return items, nil
}

// Expire は期限切れの速報を非アクティブにする。
// is_active = true を条件に含めるため、すでに期限切れにした行は再更新しない。
func (r *PostgresBreakingNewsRepo) Expire(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE breaking_news SET is_active = false WHERE is_active = true AND expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れ速報の更新に失敗しました: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
