// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, article, recommendation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidParameter      = "INVALID_PARAMETER"
	ErrCodeArticleNotFound       = "ARTICLE_NOT_FOUND"
	ErrCodeUpstreamFetch         = "UPSTREAM_FETCH_FAILED"
	ErrCodeRecommendationTimeout = "RECOMMENDATION_TIMEOUT"
	ErrCodeMissingClientID       = "MISSING_CLIENT_ID"
	ErrCodeSSRFBlocked           = "SSRF_BLOCKED"
	ErrCodeJobFailed             = "JOB_FAILED"
	ErrCodeRequestSuperseded     = "REQUEST_SUPERSEDED"
)

// ErrInvalidArticle は必須フィールドが欠けた記事レコードを表す。
// スコアリング時はこのエラーの記事をスキップしてバッチ処理を継続する。
var ErrInvalidArticle = errors.New("記事レコードが不正です")

// NewInvalidParameterError はクエリパラメータ不正エラーを生成する。
func NewInvalidParameterError(name, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidParameter,
		Message:  fmt.Sprintf("パラメータ %s が不正です: %s", name, reason),
		Category: "validation",
		Action:   "リクエストパラメータを確認してください。",
	}
}

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "article",
		Action:   "記事IDを確認してください。",
	}
}

// NewUpstreamFetchError はレコードストアまたはRSS取得の失敗エラーを生成する。
// 再試行可能なエラーとして扱う。
func NewUpstreamFetchError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFetch,
		Message:  fmt.Sprintf("データの取得に失敗しました: %s", reason),
		Category: "article",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRecommendationTimeoutError はおすすめ記事の算出がタイムアウトした場合のエラーを生成する。
func NewRecommendationTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeRecommendationTimeout,
		Message:  "おすすめ記事の取得がタイムアウトしました。",
		Category: "recommendation",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewMissingClientIDError はクライアントIDが指定されていない場合のエラーを生成する。
func NewMissingClientIDError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingClientID,
		Message:  "クライアントIDが指定されていません。",
		Category: "validation",
		Action:   "X-Client-ID ヘッダーを付与してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているRSSフィードのURLを登録してください。",
	}
}

// NewJobFailedError はバッチジョブの実行失敗エラーを生成する。
func NewJobFailedError(job, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeJobFailed,
		Message:  fmt.Sprintf("ジョブ %s の実行に失敗しました: %s", job, reason),
		Category: "system",
		Action:   "ログを確認し、しばらく待ってから再実行してください。",
	}
}

// NewRequestSupersededError は同じクライアントの新しいリクエストに置き換えられた場合のエラーを生成する。
func NewRequestSupersededError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestSuperseded,
		Message:  "より新しいリクエストにより処理が中断されました。",
		Category: "recommendation",
		Action:   "最新のリクエストの結果を使用してください。",
	}
}
