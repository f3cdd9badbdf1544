package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/newspulse/internal/model"
)

// PostgresSourceRepo はPostgreSQLを使用した速報配信元リポジトリ。
type PostgresSourceRepo struct {
	db *sql.DB
}

// NewPostgresSourceRepo はPostgresSourceRepoを生成する。
func NewPostgresSourceRepo(db *sql.DB) *PostgresSourceRepo {
	return &PostgresSourceRepo{db: db}
}

var _ SourceRepository = (*PostgresSourceRepo)(nil)

// ListActive はアクティブな配信元をpriority_weight降順で返す。
func (r *PostgresSourceRepo) ListActive(ctx context.Context) ([]model.BreakingNewsSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, rss_url, credibility_score, priority_weight, keywords_filter,
		        is_active, last_checked, success_rate
		 FROM breaking_news_sources
		 WHERE is_active = true
		 ORDER BY priority_weight DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("配信元一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sources []model.BreakingNewsSource
	for rows.Next() {
		var s model.BreakingNewsSource
		var keywords pq.StringArray
		var lastChecked sql.NullTime
		var successRate sql.NullFloat64
		if err := rows.Scan(
			&s.ID, &s.Name, &s.RSSURL, &s.CredibilityScore, &s.PriorityWeight, &keywords,
			&s.IsActive, &lastChecked, &successRate,
		); err != nil {
			return nil, fmt.Errorf("配信元の読み込みに失敗しました: %w", err)
		}
		s.KeywordsFilter = []string(keywords)
		if lastChecked.Valid {
			s.LastChecked = &lastChecked.Time
		}
		s.SuccessRate = successRate.Float64
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("配信元一覧の読み込みに失敗しました: %w", err)
	}
	return sources, nil
}

// UpdateCheckResult は最終確認日時と成功率を更新する。
func (r *PostgresSourceRepo) UpdateCheckResult(ctx context.Context, id string, checkedAt time.Time, successRate float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE breaking_news_sources SET last_checked = $2, success_rate = $3 WHERE id = $1`,
		id, checkedAt, successRate,
	)
	if err != nil {
		return fmt.Errorf("配信元の確認結果の更新に失敗しました: %w", err)
	}
	return nil
}

// PostgresUrgencyScorer はデータベース関数 calculate_urgency_score で緊急度を算出する。
type PostgresUrgencyScorer struct {
	db *sql.DB
}

// NewPostgresUrgencyScorer はPostgresUrgencyScorerを生成する。
func NewPostgresUrgencyScorer(db *sql.DB) *PostgresUrgencyScorer {
	return &PostgresUrgencyScorer{db: db}
}

// Urgency は緊急度スコア（0〜100）を返す。
func (s *PostgresUrgencyScorer) Urgency(ctx context.Context, title, description string, credibility float64) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT calculate_urgency_score($1, $2, $3)`,
		title, description, credibility,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("緊急度の算出に失敗しました: %w", err)
	}
	return score, nil
}
