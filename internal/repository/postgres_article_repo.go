package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/newspulse/internal/model"
)

// TableArticles は記事テーブル名。
const TableArticles = "news_articles"

// articleColumns はSELECTで取得する記事カラム。scanArticleの順序と一致させること。
var articleColumns = []string{
	"id", "title", "description", "full_text", "url", "image_url",
	"source", "category", "region", "tags", "published_date", "created_at",
}

// articleQueryFields はQueryで条件・ソートに使用できるカラム。
var articleQueryFields = map[string]bool{
	"id": true, "title": true, "description": true, "source": true,
	"category": true, "region": true, "published_date": true, "created_at": true,
	"tagged_at": true, "analysis_completed_at": true, "translated_content": true,
}

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// コンパイル時チェック
var _ ArticleRepository = (*PostgresArticleRepo)(nil)

// Find はQueryに一致する記事を返す。
func (r *PostgresArticleRepo) Find(ctx context.Context, q *Query) ([]model.Article, error) {
	query, args, err := q.toSelectSQL(articleColumns, articleQueryFields)
	if err != nil {
		return nil, fmt.Errorf("記事検索クエリの構築に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の読み込みに失敗しました: %w", err)
	}
	return articles, nil
}

// Count はQueryに一致する記事の件数を返す。
func (r *PostgresArticleRepo) Count(ctx context.Context, q *Query) (int, error) {
	query, args, err := q.toCountSQL(articleQueryFields)
	if err != nil {
		return 0, fmt.Errorf("記事件数クエリの構築に失敗しました: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("記事件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	articles, err := r.Find(ctx, Select(TableArticles).Filter("id", OpEq, id).WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}
	return &articles[0], nil
}

// SaveAnalysis は翻訳・分類ジョブの解析結果を保存する。
func (r *PostgresArticleRepo) SaveAnalysis(ctx context.Context, id string, analysis model.ArticleAnalysis, translation *model.ArticleTranslation) error {
	b := psql.Update(TableArticles).
		Set("primary_category", analysis.PrimaryCategory).
		Set("secondary_categories", pq.Array(analysis.SecondaryCategories)).
		Set("content_type", analysis.ContentType).
		Set("audience_level", analysis.AudienceLevel).
		Set("main_themes", pq.Array(analysis.Themes)).
		Set("auto_tags", pq.Array(analysis.AutoTags)).
		Set("analysis_completed_at", time.Now().UTC())

	if translation != nil {
		b = b.
			Set("translated_title", nullString(translation.Title)).
			Set("translated_description", nullString(translation.Description)).
			Set("translated_content", nullString(translation.Content)).
			Set("original_language", translation.OriginalLanguage).
			Set("translation_completed_at", time.Now().UTC())
	}

	query, args, err := b.Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("解析結果更新クエリの構築に失敗しました: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("解析結果の保存に失敗しました: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NewArticleNotFoundError(id)
	}
	return nil
}

// rowScanner は*sql.Rowsと*sql.Rowの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(s rowScanner) (model.Article, error) {
	var a model.Article
	var description, fullText, url, imageURL, source, category, region sql.NullString
	var tags pq.StringArray
	var publishedAt sql.NullTime

	err := s.Scan(
		&a.ID, &a.Title, &description, &fullText, &url, &imageURL,
		&source, &category, &region, &tags, &publishedAt, &a.CreatedAt,
	)
	if err != nil {
		return model.Article{}, fmt.Errorf("記事の読み込みに失敗しました: %w", err)
	}

	a.Description = nullStringValue(description)
	a.FullText = nullStringValue(fullText)
	a.URL = nullStringValue(url)
	a.ImageURL = nullStringValue(imageURL)
	a.Source = nullStringValue(source)
	a.Category = nullStringValue(category)
	a.Region = nullStringValue(region)
	a.Tags = []string(tags)
	if publishedAt.Valid {
		a.PublishedAt = publishedAt.Time
	}
	return a, nil
}

// nullString は空文字列をNULLとして扱うsql.NullStringを返す。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
