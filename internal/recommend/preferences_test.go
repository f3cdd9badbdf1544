package recommend

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/hitoshi/newspulse/internal/model"
)

func newTestPreferenceService(store *mockPreferenceStore, max int) *PreferenceService {
	s := NewPreferenceService(store, max)
	s.now = func() time.Time { return testNow }
	return s
}

// TestExtractKeywords はキーワード抽出の規則をテストする。
func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name        string
		title, desc string
		want        []string
	}{
		{
			name:  "ストップワードと短い語を除外",
			title: "The floods in Dhaka are rising",
			desc:  "Water levels at the river",
			want:  []string{"floods", "dhaka", "rising", "water", "levels", "river"},
		},
		{
			name:  "記号を空白として扱う",
			title: "Israel-Iran talks: ceasefire?",
			want:  []string{"israel", "iran", "talks", "ceasefire"},
		},
		{
			name:  "先頭10語を取ってから重複を除く",
			title: "alpha beta gamma delta alpha epsilon zeta theta iota kappa lambda",
			want:  []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "iota", "kappa"},
		},
		{
			name:  "空",
			title: "",
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.title, tt.desc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPreferenceService_AddReplacesAndOrders は追加した嗜好が先頭に入り、同じ記事は置き換えられることをテストする。
func TestPreferenceService_AddReplacesAndOrders(t *testing.T) {
	store := newMockPreferenceStore()
	svc := newTestPreferenceService(store, 0)
	ctx := context.Background()

	a1 := model.Article{ID: "a1", Title: "Dhaka floods worsen", Category: "weather", Source: "BBC", Region: "asia"}
	a2 := model.Article{ID: "a2", Title: "Cricket final tonight", Category: "sports", Source: "Daily Star", Region: "bangladesh"}

	pref, err := svc.Add(ctx, "c1", a1)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !reflect.DeepEqual(pref.Keywords, []string{"dhaka", "floods", "worsen"}) {
		t.Errorf("Keywords = %v", pref.Keywords)
	}
	if !pref.Timestamp.Equal(testNow) {
		t.Errorf("Timestamp = %v, want %v", pref.Timestamp, testNow)
	}

	if _, err := svc.Add(ctx, "c1", a2); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := svc.Add(ctx, "c1", a1); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	prefs, _ := svc.List(ctx, "c1")
	if len(prefs) != 2 {
		t.Fatalf("len = %d, want 2", len(prefs))
	}
	if prefs[0].ArticleID != "a1" || prefs[1].ArticleID != "a2" {
		t.Errorf("order = [%s %s], want [a1 a2]", prefs[0].ArticleID, prefs[1].ArticleID)
	}

	has, _ := svc.Has(ctx, "c1", "a2")
	if !has {
		t.Error("Has(a2) = false, want true")
	}
}

// TestPreferenceService_Cap は上限を超えた古い嗜好が削除されることをテストする。
func TestPreferenceService_Cap(t *testing.T) {
	store := newMockPreferenceStore()
	svc := newTestPreferenceService(store, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := svc.Add(ctx, "c1", model.Article{ID: fmt.Sprintf("a%d", i), Title: "t"}); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}

	prefs, _ := svc.List(ctx, "c1")
	var ids []string
	for _, p := range prefs {
		ids = append(ids, p.ArticleID)
	}
	if !reflect.DeepEqual(ids, []string{"a5", "a4", "a3"}) {
		t.Errorf("ids = %v, want [a5 a4 a3]", ids)
	}
}

// TestPreferenceService_RemoveAndClear は個別削除と全削除をテストする。
func TestPreferenceService_RemoveAndClear(t *testing.T) {
	store := newMockPreferenceStore()
	svc := newTestPreferenceService(store, 0)
	ctx := context.Background()

	svc.Add(ctx, "c1", model.Article{ID: "a1", Title: "one"})
	svc.Add(ctx, "c1", model.Article{ID: "a2", Title: "two"})
	svc.Add(ctx, "c2", model.Article{ID: "a1", Title: "one"})

	if err := svc.Remove(ctx, "c1", "a1"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Remove(ctx, "c1", "missing"); err != nil {
		t.Fatalf("Remove (missing) returned error: %v", err)
	}
	prefs, _ := svc.List(ctx, "c1")
	if len(prefs) != 1 || prefs[0].ArticleID != "a2" {
		t.Errorf("prefs = %v, want [a2]", prefs)
	}

	if err := svc.Clear(ctx, "c1"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	prefs, _ = svc.List(ctx, "c1")
	if len(prefs) != 0 {
		t.Errorf("prefs after clear = %v, want empty", prefs)
	}

	other, _ := svc.List(ctx, "c2")
	if len(other) != 1 {
		t.Errorf("c2 prefs = %v, want untouched", other)
	}
}

// TestPreferenceService_StoreErrors はストアのエラーがラップされて返ることをテストする。
func TestPreferenceService_StoreErrors(t *testing.T) {
	storeErr := errors.New("disk full")

	store := newMockPreferenceStore()
	store.setErr = storeErr
	svc := newTestPreferenceService(store, 0)
	if _, err := svc.Add(context.Background(), "c1", model.Article{ID: "a1", Title: "x"}); !errors.Is(err, storeErr) {
		t.Errorf("Add err = %v, want wrapped store error", err)
	}

	store = newMockPreferenceStore()
	store.getErr = storeErr
	svc = newTestPreferenceService(store, 0)
	if _, err := svc.List(context.Background(), "c1"); !errors.Is(err, storeErr) {
		t.Errorf("List err = %v, want wrapped store error", err)
	}
}
