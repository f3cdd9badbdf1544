// Package ranking は記事の配信元ティア判定、関連度スコアリング、
// 多段キーソートおよびページングを提供する。
// このパッケージの関数はすべて純粋な同期計算であり、I/Oを行わない。
package ranking

import "strings"

// Matcher は配信元名と候補名の一致判定戦略を表す。
// 呼び出し側に影響を与えずに部分一致・トークン一致などへ差し替えられる。
// 引数はどちらも正規化済み（小文字・前後空白除去）であること。
type Matcher interface {
	Match(name, candidate string) bool
}

// SubstringMatcher は双方向の部分文字列包含で一致を判定する。
// "bbc" と "bbc news"、"bbc.com" と "bbc" のどちらも一致する。
type SubstringMatcher struct{}

// Match はnameとcandidateのどちらかがもう一方を含む場合にtrueを返す。
// 空文字列はどの候補とも一致しない。
func (SubstringMatcher) Match(name, candidate string) bool {
	if name == "" || candidate == "" {
		return false
	}
	return strings.Contains(name, candidate) || strings.Contains(candidate, name)
}

// TokenMatcher は単語単位の包含で一致を判定する。
// 候補名の全トークンが配信元名に含まれる（またはその逆）場合に一致とみなす。
type TokenMatcher struct{}

// Match はトークン集合の包含関係で一致を判定する。
func (TokenMatcher) Match(name, candidate string) bool {
	a := tokenize(name)
	b := tokenize(candidate)
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return containsAll(a, b) || containsAll(b, a)
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '.' || r == '-' || r == '_' || r == '/'
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func containsAll(set, sub map[string]struct{}) bool {
	for k := range sub {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}

// KeywordMatcher はテキスト中に出現するキーワードを抽出する戦略を表す。
type KeywordMatcher interface {
	// Matches はtextに出現するkeywordsを重複なく、keywordsの順序で返す。
	Matches(text string, keywords []string) []string
}

// SubstringKeywordMatcher は小文字化した部分文字列包含でキーワードを照合する。
type SubstringKeywordMatcher struct{}

// Matches はキーワードを小文字化してtextに含まれるものを返す。
// textは呼び出し側で小文字化されていること。
func (SubstringKeywordMatcher) Matches(text string, keywords []string) []string {
	if text == "" {
		return nil
	}
	var found []string
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		if strings.Contains(text, k) {
			seen[k] = struct{}{}
			found = append(found, k)
		}
	}
	return found
}

// normalize は照合前の配信元名を正規化する。
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
