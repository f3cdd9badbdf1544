package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/newspulse/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグ付与リポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

var _ TagRepository = (*PostgresTagRepo)(nil)

// EnsureTags はタグ一覧をarticle_tagsにupsertする。
func (r *PostgresTagRepo) EnsureTags(ctx context.Context, tags []model.Tag) error {
	for _, t := range tags {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO article_tags (slug, name, category) VALUES ($1, $2, $3)
			 ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category`,
			t.Slug, t.Name, t.Category,
		); err != nil {
			return fmt.Errorf("タグ %s の登録に失敗しました: %w", t.Slug, err)
		}
	}
	return nil
}

// ReplaceAssignments は記事の既存タグ付与を削除して新しい付与を挿入し、
// 記事のtagsカラムとtagged_atを同一トランザクションで更新する。
// 同じ入力で繰り返し実行しても結果は変わらない。
func (r *PostgresTagRepo) ReplaceAssignments(ctx context.Context, articleID string, assignments []model.TagAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM article_tag_assignments WHERE article_id = $1`, articleID,
	); err != nil {
		return fmt.Errorf("既存タグの削除に失敗しました: %w", err)
	}

	slugs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tag_assignments (article_id, tag_slug, relevance_score, assigned_at)
			 VALUES ($1, $2, $3, $4)`,
			articleID, a.TagSlug, a.RelevanceScore, a.AssignedAt,
		); err != nil {
			return fmt.Errorf("タグ %s の付与に失敗しました: %w", a.TagSlug, err)
		}
		slugs = append(slugs, a.TagSlug)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE news_articles SET tags = $2, tagged_at = $3 WHERE id = $1`,
		articleID, pq.Array(slugs), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("記事タグの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}
