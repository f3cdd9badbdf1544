package recommend

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

// キャッシュの既定値。
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheMaxSize = 50
)

// CacheStatus はおすすめ結果の取得元を表す。
type CacheStatus string

const (
	CacheHit     CacheStatus = "hit"
	CacheMiss    CacheStatus = "miss"
	CacheExpired CacheStatus = "expired"
)

// CacheKey はカテゴリと除外ID（ソート済み）からキャッシュキーを生成する。
func CacheKey(category string, excludeIDs []string) string {
	sorted := slices.Clone(excludeIDs)
	slices.Sort(sorted)
	return category + ":" + strings.Join(sorted, ",")
}

// CacheEntry はキャッシュされたおすすめ結果。
type CacheEntry struct {
	Data       []model.Recommendation
	ClientID   string
	Category   string
	ExcludeIDs []string
	Timestamp  time.Time
	ExpiresAt  time.Time
}

// CacheStats はキャッシュの状態。
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Cache はTTLと件数上限を持つおすすめ結果のキャッシュ。
// 上限に達した場合は最も古いエントリを削除する。
type Cache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	pending map[*Reservation]struct{}
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// Reservation は取得中のキーの予約。
// 取得中に対象が無効化された場合、Commitは結果を保存しない。
type Reservation struct {
	key      string
	clientID string
	category string
	stale    bool
}

// NewCache はCacheを生成する。0以下の値には既定値を使う。
func NewCache(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	return &Cache{
		entries: make(map[string]*CacheEntry),
		pending: make(map[*Reservation]struct{}),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get はキーのエントリを返す。
// 期限切れのエントリは削除してCacheExpiredを、存在しない場合はCacheMissを返す。
func (c *Cache) Get(key string) (*CacheEntry, CacheStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, CacheMiss
	}
	if c.now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, CacheExpired
	}
	return entry, CacheHit
}

// Set はエントリを保存する。新しいキーで上限に達している場合は最も古いエントリを削除する。
func (c *Cache) Set(key string, entry CacheEntry) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry.Timestamp = now
	entry.ExpiresAt = now.Add(c.ttl)
	entry.ExcludeIDs = slices.Clone(entry.ExcludeIDs)

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry
	return &entry
}

// Reserve は取得開始時に呼び出し、以後の無効化を検知するための予約を返す。
// 予約は必ずCommitまたはReleaseで解放する。
func (c *Cache) Reserve(key, clientID, category string) *Reservation {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &Reservation{key: key, clientID: clientID, category: category}
	c.pending[r] = struct{}{}
	return r
}

// Commit は予約以降に無効化されていなければエントリを保存する。
// 保存した場合はtrueを返す。いずれの場合も予約は解放される。
func (c *Cache) Commit(r *Reservation, entry CacheEntry) (*CacheEntry, bool) {
	c.mu.Lock()
	delete(c.pending, r)
	stale := r.stale
	c.mu.Unlock()

	if stale {
		now := c.now()
		entry.Timestamp = now
		entry.ExpiresAt = now
		return &entry, false
	}
	return c.Set(r.key, entry), true
}

// Release は結果を保存せずに予約を解放する。
func (c *Cache) Release(r *Reservation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, r)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.Timestamp.Before(oldest) || (e.Timestamp.Equal(oldest) && k < oldestKey) {
			oldestKey, oldest = k, e.Timestamp
		}
	}
	delete(c.entries, oldestKey)
}

// Invalidate は指定カテゴリのエントリを削除する。categoryが空の場合はすべて削除する。
// 削除件数を返す。
func (c *Cache) Invalidate(category string) int {
	n, _ := c.invalidate(categoryMatcher(category))
	return n
}

// InvalidateClient は指定クライアントのエントリをすべて削除する。
// 取得中の結果も保存されなくなる。
func (c *Cache) InvalidateClient(clientID string) int {
	n, _ := c.invalidate(clientMatcher(clientID))
	return n
}

func categoryMatcher(category string) func(clientID, cat string) bool {
	return func(_, cat string) bool { return category == "" || cat == category }
}

func clientMatcher(clientID string) func(clientID, cat string) bool {
	return func(id, _ string) bool { return id == clientID }
}

// invalidate は一致するエントリを削除し、一致する予約を無効にする。
// 削除件数と、無効にした予約のキーを返す。
func (c *Cache) invalidate(match func(clientID, category string) bool) (int, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if match(e.ClientID, e.Category) {
			delete(c.entries, k)
			n++
		}
	}
	var keys []string
	for r := range c.pending {
		if match(r.clientID, r.category) {
			r.stale = true
			keys = append(keys, r.key)
		}
	}
	return n, keys
}

// Stats はキャッシュの件数とキー一覧を返す。
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return CacheStats{Size: len(c.entries), Keys: keys}
}
