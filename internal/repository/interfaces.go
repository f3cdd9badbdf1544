// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

// ErrDuplicate は一意制約（記事URLなど）により挿入がスキップされたことを表す。
// 呼び出し側はエラーとして扱わず、スキップ件数として数える。
var ErrDuplicate = errors.New("既に登録済みのレコードです")

// ArticleRepository は記事レコードストアへの問い合わせインターフェース。
type ArticleRepository interface {
	// Find はQueryに一致する記事を返す。
	Find(ctx context.Context, q *Query) ([]model.Article, error)

	// Count はQueryに一致する記事の件数を返す。ソートと件数上限は無視される。
	Count(ctx context.Context, q *Query) (int, error)

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// SaveAnalysis は翻訳・分類ジョブの解析結果を保存する。
	// translationがnilの場合は翻訳カラムを変更しない。
	SaveAnalysis(ctx context.Context, id string, analysis model.ArticleAnalysis, translation *model.ArticleTranslation) error
}

// TagRepository は記事タグ付与の永続化インターフェース。
type TagRepository interface {
	// EnsureTags はタグ一覧を登録する。既に存在するタグは名前とカテゴリを更新する。
	EnsureTags(ctx context.Context, tags []model.Tag) error

	// ReplaceAssignments は記事の既存タグ付与を置き換え、記事のtagsカラムとtagged_atを更新する。
	ReplaceAssignments(ctx context.Context, articleID string, assignments []model.TagAssignment) error
}

// BreakingNewsRepository は速報の永続化インターフェース。
type BreakingNewsRepository interface {
	// ExistsByURL は同じ記事URLの速報が存在するかを返す。
	ExistsByURL(ctx context.Context, articleURL string) (bool, error)

	// Create は速報と通知レコードを同一トランザクションで作成する。
	// 記事URLが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, item *model.BreakingNewsItem, alert *model.BreakingNewsAlert) error

	// ListActive はアクティブかつ期限内で、緊急度がminUrgency以上の速報を
	// 優先度・新しい順に最大limit件返す。
	ListActive(ctx context.Context, minUrgency int, now time.Time, limit int) ([]model.BreakingNewsItem, error)

	// Expire は期限切れの速報を非アクティブにし、更新件数を返す。
	// 条件付き更新のため、繰り返し実行や挿入との同時実行に対して安全である。
	Expire(ctx context.Context, now time.Time) (int64, error)
}

// SourceRepository は速報監視対象の配信元の永続化インターフェース。
type SourceRepository interface {
	// ListActive はアクティブな配信元をpriority_weight降順で返す。
	ListActive(ctx context.Context) ([]model.BreakingNewsSource, error)

	// UpdateCheckResult は最終確認日時と成功率を更新する。
	UpdateCheckResult(ctx context.Context, id string, checkedAt time.Time, successRate float64) error
}

// PreferenceStore はクライアントごとの嗜好リストを保持するキーバリューストア。
// プロセス再起動後も保持されること。
type PreferenceStore interface {
	// Get はクライアントの嗜好リストを返す。未登録の場合は空のリストを返す。
	Get(ctx context.Context, clientID string) ([]model.UserPreference, error)

	// Set はクライアントの嗜好リストを置き換える。
	Set(ctx context.Context, clientID string, prefs []model.UserPreference) error

	// Remove はクライアントの嗜好リストを削除する。
	Remove(ctx context.Context, clientID string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
