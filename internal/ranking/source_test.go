package ranking

import (
	"testing"

	"github.com/hitoshi/newspulse/internal/model"
)

// TestSourceRanker_Classify はキュレーション済みリストに対するティア判定をテストする。
func TestSourceRanker_Classify(t *testing.T) {
	r := NewDefaultSourceRanker()

	tests := []struct {
		name   string
		source string
		want   model.SourceTier
	}{
		{"tier1の完全一致", "Reuters", model.Tier1},
		{"tier1を含む配信元名", "BBC News", model.Tier1},
		{"ドメイン形式", "bbc.com", model.Tier1},
		{"配信元名がリスト名に含まれる", "Guardian", model.Tier1},
		{"前後空白と大文字", "  AL JAZEERA  ", model.Tier1},
		{"tier2", "The Jerusalem Post", model.Tier2},
		{"tier2 daily star", "The Daily Star", model.Tier2},
		{"tier3リスト", "Bangla Tribune", model.Tier3},
		{"未知の配信元", "Random Blog", model.Tier3},
		{"空文字列", "", model.Tier3},
		{"空白のみ", "   ", model.Tier3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Classify(tt.source); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

// TestSourceRanker_Classify_Tier1WinsRegardlessOfLowerLists は
// tier1リストに含まれる名前がtier2/tier3リストの内容に関係なくtier1になることをテストする。
func TestSourceRanker_Classify_Tier1WinsRegardlessOfLowerLists(t *testing.T) {
	r := NewSourceRanker(TierLists{
		Tier1: []string{"reuters"},
		Tier2: []string{"reuters"},
		Tier3: []string{"reuters", "r"},
	}, nil, nil)

	if got := r.Classify("Reuters"); got != model.Tier1 {
		t.Errorf("Classify(Reuters) = %q, want tier1", got)
	}
}

// TestSourceRanker_Classify_IsTotal は任意の入力に対して3ティアのいずれかを返すことをテストする。
func TestSourceRanker_Classify_IsTotal(t *testing.T) {
	r := NewDefaultSourceRanker()
	inputs := []string{"", "\x00", "日本経済新聞", "bbc", "a", "ünïcödé news", "https://reuters.com/world"}
	for _, in := range inputs {
		got := r.Classify(in)
		if got != model.Tier1 && got != model.Tier2 && got != model.Tier3 {
			t.Errorf("Classify(%q) = %q, want one of tier1/tier2/tier3", in, got)
		}
	}
}

// TestSourceTier_Priority はティアごとの整数優先度をテストする。
func TestSourceTier_Priority(t *testing.T) {
	tests := []struct {
		tier model.SourceTier
		want int
	}{
		{model.Tier1, 100},
		{model.Tier2, 70},
		{model.Tier3, 40},
	}
	for _, tt := range tests {
		if got := tt.tier.Priority(); got != tt.want {
			t.Errorf("%s.Priority() = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

// TestSourceRanker_ScoreWithSource は倍率表の適用をテストする。
func TestSourceRanker_ScoreWithSource(t *testing.T) {
	r := NewDefaultSourceRanker()

	tests := []struct {
		source string
		base   float64
		want   float64
	}{
		{"Reuters", 100, 500},
		{"Reuters", 0, 200},
		{"Tehran Times", 100, 260},
		{"Random Blog", 100, 100},
		{"Random Blog", 0, 0},
	}
	for _, tt := range tests {
		if got := r.ScoreWithSource(tt.base, tt.source); got != tt.want {
			t.Errorf("ScoreWithSource(%v, %q) = %v, want %v", tt.base, tt.source, got, tt.want)
		}
	}
}

// TestNewSourceRanker_PartialMultipliers は欠けたティアの倍率がデフォルトで補完されることをテストする。
func TestNewSourceRanker_PartialMultipliers(t *testing.T) {
	r := NewSourceRanker(DefaultTierLists(), MultiplierTable{
		model.Tier1: {Factor: 2, Bonus: 100},
	}, nil)

	if got := r.ScoreWithSource(10, "cnn"); got != 120 {
		t.Errorf("tier1 score = %v, want 120", got)
	}
	if got := r.ScoreWithSource(10, "press tv"); got != 98 {
		t.Errorf("tier2 score = %v, want 98 (default multiplier)", got)
	}
}

// TestTokenMatcher はトークン単位の照合戦略をテストする。
func TestTokenMatcher(t *testing.T) {
	m := TokenMatcher{}

	if !m.Match("bbc news", "bbc") {
		t.Error("expected 'bbc news' to match 'bbc'")
	}
	if !m.Match("ap", "ap news") {
		t.Error("expected 'ap' to match 'ap news'")
	}
	if m.Match("cnnx", "cnn") {
		t.Error("expected 'cnnx' not to match 'cnn' on token boundaries")
	}
	if m.Match("", "cnn") {
		t.Error("expected empty name not to match")
	}
}

// TestSourceRanker_WithTokenMatcher は照合戦略を差し替えても呼び出し側が変わらないことをテストする。
func TestSourceRanker_WithTokenMatcher(t *testing.T) {
	r := NewSourceRanker(DefaultTierLists(), nil, TokenMatcher{})

	if got := r.Classify("CNN International"); got != model.Tier1 {
		t.Errorf("Classify(CNN International) = %q, want tier1", got)
	}
	// 部分文字列では一致するがトークンでは一致しない
	if got := r.Classify("cnnbrasil"); got != model.Tier3 {
		t.Errorf("Classify(cnnbrasil) = %q, want tier3", got)
	}
}

// TestSubstringKeywordMatcher はキーワード抽出の重複排除と順序をテストする。
func TestSubstringKeywordMatcher(t *testing.T) {
	m := SubstringKeywordMatcher{}
	got := m.Matches("missile strike near gaza, missile defense", []string{"gaza", "Missile", "missile", "", "hamas"})

	want := []string{"gaza", "missile"}
	if len(got) != len(want) {
		t.Fatalf("Matches() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Matches()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := m.Matches("", []string{"gaza"}); got != nil {
		t.Errorf("Matches(empty) = %v, want nil", got)
	}
}
