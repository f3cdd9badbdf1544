// Package security は速報取得時のSSRF防止とフィード本文の整形を提供する。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はRSS由来のHTMLをプレーンテキストへ整形する。
type TextSanitizer interface {
	// StripHTML は全てのタグを除去し、エンティティを復号して空白を正規化する。
	StripHTML(raw string) string
}

// ContentSanitizer はbluemondayのStrictPolicyによるTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため共有して使用できる。
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
func NewContentSanitizer() *ContentSanitizer {
	return &ContentSanitizer{policy: bluemonday.StrictPolicy()}
}

var _ TextSanitizer = (*ContentSanitizer)(nil)

// StripHTML はHTMLタグを除去したプレーンテキストを返す。
// script/style要素は中身ごと除去される。
func (s *ContentSanitizer) StripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

// Truncate は文字列を最大maxRunes文字に切り詰める。
// マルチバイト文字の途中では切らない。
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
