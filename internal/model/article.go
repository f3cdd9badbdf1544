package model

import (
	"fmt"
	"strings"
	"time"
)

// Article はレコードストアに保存されたニュース記事を表す。
// IDは不変で、ページングを跨いだ重複排除の唯一のキーとして使用する。
type Article struct {
	ID          string
	Title       string
	Description string // 任意
	FullText    string // 任意
	URL         string
	ImageURL    string // 任意
	Source      string // 配信元名（自由記述）
	Category    string
	Region      string
	Tags        []string
	PublishedAt time.Time
	CreatedAt   time.Time
}

// Validate はスコアリングに必要な必須フィールドを検証する。
// ID、タイトル、公開日時のいずれかが欠けている場合はErrInvalidArticleを返す。
func (a Article) Validate() error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return fmt.Errorf("%w: idが空です", ErrInvalidArticle)
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w: titleが空です (id=%s)", ErrInvalidArticle, a.ID)
	case a.PublishedAt.IsZero():
		return fmt.Errorf("%w: published_dateが空です (id=%s)", ErrInvalidArticle, a.ID)
	}
	return nil
}

// Text はタイトルと概要を連結した小文字のテキストを返す。
// キーワード照合はすべてこのテキストに対して行う。
func (a Article) Text() string {
	return strings.ToLower(a.Title + " " + a.Description)
}

// ScoredArticle はスコアリング済みの記事を表す。
// 永続化されず、記事集合やスコア入力（現在時刻・嗜好）が変わるたびに再計算される。
type ScoredArticle struct {
	Article
	PriorityScore  float64
	SecondaryScore float64
	SourceTier     SourceTier
}

// ArticleAnalysis は翻訳・分類ジョブが記事に付与する解析結果を表す。
type ArticleAnalysis struct {
	PrimaryCategory     string
	SecondaryCategories []string
	ContentType         string
	AudienceLevel       string
	Themes              []string
	AutoTags            []string
}

// ArticleTranslation は翻訳済みの記事本文を表す。
type ArticleTranslation struct {
	Title            string
	Description      string
	Content          string
	OriginalLanguage string
}
