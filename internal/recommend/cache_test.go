package recommend

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

func newTestCache(ttl time.Duration, max int) (*Cache, *time.Time) {
	c := NewCache(ttl, max)
	now := testNow
	c.now = func() time.Time { return now }
	return c, &now
}

// TestCacheKey は除外IDの順序に依存しないキー生成をテストする。
func TestCacheKey(t *testing.T) {
	tests := []struct {
		category string
		exclude  []string
		want     string
	}{
		{"Today", nil, "Today:"},
		{"politics", []string{"b", "a", "c"}, "politics:a,b,c"},
		{"politics", []string{"c", "a", "b"}, "politics:a,b,c"},
	}
	for _, tt := range tests {
		if got := CacheKey(tt.category, tt.exclude); got != tt.want {
			t.Errorf("CacheKey(%s, %v) = %q, want %q", tt.category, tt.exclude, got, tt.want)
		}
	}

	ids := []string{"z", "y"}
	CacheKey("x", ids)
	if !reflect.DeepEqual(ids, []string{"z", "y"}) {
		t.Errorf("CacheKey mutated its input: %v", ids)
	}
}

// TestCache_HitMissExpired はTTLによる状態遷移をテストする。
func TestCache_HitMissExpired(t *testing.T) {
	c, now := newTestCache(5*time.Minute, 10)

	if _, status := c.Get("k"); status != CacheMiss {
		t.Errorf("status = %s, want miss", status)
	}

	c.Set("k", CacheEntry{Category: "Today", Data: []model.Recommendation{{Score: 20}}})

	*now = now.Add(5 * time.Minute)
	entry, status := c.Get("k")
	if status != CacheHit {
		t.Fatalf("status at TTL boundary = %s, want hit", status)
	}
	if !entry.ExpiresAt.Equal(testNow.Add(5 * time.Minute)) {
		t.Errorf("ExpiresAt = %v", entry.ExpiresAt)
	}

	*now = now.Add(time.Second)
	if _, status := c.Get("k"); status != CacheExpired {
		t.Errorf("status after TTL = %s, want expired", status)
	}
	if _, status := c.Get("k"); status != CacheMiss {
		t.Errorf("status after expired entry removed = %s, want miss", status)
	}
}

// TestCache_EvictsOldest は上限到達時に最も古いエントリが削除されることをテストする。
func TestCache_EvictsOldest(t *testing.T) {
	c, now := newTestCache(time.Hour, 3)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), CacheEntry{})
		*now = now.Add(time.Second)
	}
	// 既存キーの更新では削除しない
	c.Set("k1", CacheEntry{})
	if c.Stats().Size != 3 {
		t.Fatalf("size = %d, want 3", c.Stats().Size)
	}

	*now = now.Add(time.Second)
	c.Set("k3", CacheEntry{})

	stats := c.Stats()
	if !reflect.DeepEqual(stats.Keys, []string{"k1", "k2", "k3"}) {
		t.Errorf("keys = %v, want k0 evicted", stats.Keys)
	}
}

// TestCache_Invalidate はカテゴリ・クライアント単位と全体の削除をテストする。
func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	c.Set("c1|politics:", CacheEntry{ClientID: "c1", Category: "politics"})
	c.Set("c1|sports:", CacheEntry{ClientID: "c1", Category: "sports"})
	c.Set("c2|politics:", CacheEntry{ClientID: "c2", Category: "politics"})
	c.Set("c2|Today:", CacheEntry{ClientID: "c2", Category: "Today"})

	if n := c.Invalidate("politics"); n != 2 {
		t.Errorf("Invalidate(politics) = %d, want 2", n)
	}
	if n := c.InvalidateClient("c1"); n != 1 {
		t.Errorf("InvalidateClient(c1) = %d, want 1", n)
	}
	if n := c.Invalidate(""); n != 1 {
		t.Errorf("Invalidate(all) = %d, want 1", n)
	}
	if c.Stats().Size != 0 {
		t.Errorf("size = %d, want 0", c.Stats().Size)
	}
}

// TestCache_ReservationInvalidated は予約後に無効化されたキーへの保存が行われないことをテストする。
func TestCache_ReservationInvalidated(t *testing.T) {
	c := NewCache(0, 0)

	stale := c.Reserve("a|Today:", "a", "Today")
	fresh := c.Reserve("b|Today:", "b", "Today")
	c.InvalidateClient("a")

	if _, stored := c.Commit(stale, CacheEntry{ClientID: "a", Category: "Today"}); stored {
		t.Error("entry reserved before invalidation was stored")
	}
	if _, stored := c.Commit(fresh, CacheEntry{ClientID: "b", Category: "Today"}); !stored {
		t.Error("entry of another client was not stored")
	}
	if _, status := c.Get("a|Today:"); status != CacheMiss {
		t.Errorf("status = %s, want miss", status)
	}
	if _, status := c.Get("b|Today:"); status != CacheHit {
		t.Errorf("status = %s, want hit", status)
	}

	byCategory := c.Reserve("b|sports:", "b", "sports")
	if n, keys := c.invalidate(categoryMatcher("sports")); n != 0 || len(keys) != 1 || keys[0] != "b|sports:" {
		t.Errorf("invalidate(sports) = %d, %v", n, keys)
	}
	c.Release(byCategory)
	if len(c.pending) != 0 {
		t.Errorf("pending reservations = %d, want 0", len(c.pending))
	}
}
