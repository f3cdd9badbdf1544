package model

import "time"

// UserPreference はユーザーが興味を示した記事の記録を表す。
// 新しい順に保持され、上限を超えた古いものから削除される。暗黙の期限切れはない。
type UserPreference struct {
	ArticleID string    `json:"articleId"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	Region    string    `json:"region"`
	Keywords  []string  `json:"keywords"`
	Timestamp time.Time `json:"timestamp"`
}

// Recommendation は嗜好履歴に対してスコアリングされた候補記事を表す。
// Reasonsは同じ入力から再現可能な、発火したスコア要素の説明。
type Recommendation struct {
	Article Article
	Score   int
	Reasons []string
}

// Tag は記事に付与できるタグを表す。
type Tag struct {
	Slug     string
	Name     string
	Category string // industry, region, topic, event, category, time
}

// TagAssignment は記事へのタグ付与結果を表す。
type TagAssignment struct {
	ArticleID      string
	TagSlug        string
	RelevanceScore int
	AssignedAt     time.Time
}
