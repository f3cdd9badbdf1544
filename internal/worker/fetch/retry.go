package fetch

import (
	"errors"
	"fmt"
	"time"
)

// FetchResult はHTTPステータスコードに基づくフェッチ結果の分類。
type FetchResult int

const (
	// FetchResultOK はフェッチ成功（2xx）。
	FetchResultOK FetchResult = iota
	// FetchResultStop は再試行しても回復しないステータス（404/410/401/403）。
	FetchResultStop
	// FetchResultRetry は再試行で回復しうるステータス（429/5xx）。
	FetchResultRetry
	// FetchResultUnknown は未知のステータスコード。
	FetchResultUnknown
)

// 再試行の既定値。配信元1件につき再試行は最大1回。
const (
	DefaultMaxRetries = 1
	DefaultRetryDelay = 2 * time.Second
)

// ClassifyHTTPStatus はHTTPステータスコードをフェッチ結果に分類する。
func ClassifyHTTPStatus(statusCode int) FetchResult {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return FetchResultOK
	case statusCode == 404 || statusCode == 410 || statusCode == 401 || statusCode == 403:
		return FetchResultStop
	case statusCode == 429 || statusCode >= 500:
		return FetchResultRetry
	default:
		return FetchResultUnknown
	}
}

// FetchError は配信元の取得失敗を表す。
type FetchError struct {
	URL        string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s の取得に失敗しました (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s の取得に失敗しました: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsRetryable はエラーが再試行対象かを返す。
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable
}

// RetryPolicy は取得失敗時の再試行方針。
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy は再試行1回、待機2秒の方針を返す。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay}
}
