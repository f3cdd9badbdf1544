// Package recommend はユーザーの嗜好履歴に基づくおすすめ記事の算出を提供する。
package recommend

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/repository"
)

// DefaultMaxPreferences はクライアントごとに保持する嗜好の上限。
const DefaultMaxPreferences = 100

// maxExtractedKeywords は1記事から抽出するキーワードの上限。
const maxExtractedKeywords = 10

var (
	nonWordPattern = regexp.MustCompile(`[^\w\s]`)

	stopwords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
		"to": {}, "for": {}, "of": {}, "with": {}, "by": {},
		"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
		"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
		"will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "can": {},
		"must": {}, "shall": {},
		"this": {}, "that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {}, "she": {},
		"it": {}, "we": {}, "they": {},
		"me": {}, "him": {}, "her": {}, "us": {}, "them": {}, "my": {}, "your": {}, "his": {},
		"its": {}, "our": {}, "their": {},
	}
)

// ExtractKeywords はタイトルと概要からキーワードを抽出する。
// 小文字化して英数字以外を空白に置き換え、3文字以上かつストップワード以外の先頭10語を重複なしで返す。
func ExtractKeywords(title, description string) []string {
	text := strings.ToLower(title + " " + description)
	text = nonWordPattern.ReplaceAllString(text, " ")

	words := make([]string, 0, maxExtractedKeywords)
	for _, w := range strings.Fields(text) {
		if len(w) <= 2 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		words = append(words, w)
		if len(words) == maxExtractedKeywords {
			break
		}
	}

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

// PreferenceService はクライアントごとの嗜好リストを管理する。
type PreferenceService struct {
	store repository.PreferenceStore
	max   int
	now   func() time.Time

	// 読み出し・更新・書き戻しを直列化する
	mu sync.Mutex
}

// NewPreferenceService はPreferenceServiceを生成する。maxが0以下の場合は既定値を使う。
func NewPreferenceService(store repository.PreferenceStore, max int) *PreferenceService {
	if max <= 0 {
		max = DefaultMaxPreferences
	}
	return &PreferenceService{store: store, max: max, now: time.Now}
}

// List はクライアントの嗜好リストを新しい順に返す。
func (s *PreferenceService) List(ctx context.Context, clientID string) ([]model.UserPreference, error) {
	prefs, err := s.store.Get(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("嗜好リストの取得に失敗しました: %w", err)
	}
	return prefs, nil
}

// Add は記事を嗜好リストの先頭に追加する。
// 同じ記事が既にある場合は置き換え、上限を超えた古いものは削除する。
func (s *PreferenceService) Add(ctx context.Context, clientID string, article model.Article) (model.UserPreference, error) {
	pref := model.UserPreference{
		ArticleID: article.ID,
		Title:     article.Title,
		Category:  article.Category,
		Source:    article.Source,
		Region:    article.Region,
		Keywords:  ExtractKeywords(article.Title, article.Description),
		Timestamp: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.store.Get(ctx, clientID)
	if err != nil {
		return model.UserPreference{}, fmt.Errorf("嗜好リストの取得に失敗しました: %w", err)
	}

	updated := make([]model.UserPreference, 0, len(prefs)+1)
	updated = append(updated, pref)
	for _, p := range prefs {
		if p.ArticleID == article.ID {
			continue
		}
		updated = append(updated, p)
	}
	if len(updated) > s.max {
		updated = updated[:s.max]
	}

	if err := s.store.Set(ctx, clientID, updated); err != nil {
		return model.UserPreference{}, fmt.Errorf("嗜好リストの保存に失敗しました: %w", err)
	}
	return pref, nil
}

// Remove は指定記事を嗜好リストから削除する。存在しない場合は何もしない。
func (s *PreferenceService) Remove(ctx context.Context, clientID, articleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.store.Get(ctx, clientID)
	if err != nil {
		return fmt.Errorf("嗜好リストの取得に失敗しました: %w", err)
	}

	filtered := make([]model.UserPreference, 0, len(prefs))
	for _, p := range prefs {
		if p.ArticleID != articleID {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == len(prefs) {
		return nil
	}

	if err := s.store.Set(ctx, clientID, filtered); err != nil {
		return fmt.Errorf("嗜好リストの保存に失敗しました: %w", err)
	}
	return nil
}

// Has は指定記事が嗜好リストに含まれるかを返す。
func (s *PreferenceService) Has(ctx context.Context, clientID, articleID string) (bool, error) {
	prefs, err := s.List(ctx, clientID)
	if err != nil {
		return false, err
	}
	for _, p := range prefs {
		if p.ArticleID == articleID {
			return true, nil
		}
	}
	return false, nil
}

// Clear はクライアントの嗜好リストをすべて削除する。
func (s *PreferenceService) Clear(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, clientID); err != nil {
		return fmt.Errorf("嗜好リストの削除に失敗しました: %w", err)
	}
	return nil
}
