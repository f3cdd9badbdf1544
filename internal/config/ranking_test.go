package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
)

const sampleRankingYAML = `
matcher: token
tiers:
  tier1: ["Reuters", "Example Wire"]
multipliers:
  tier2: {factor: 2.0, bonus: 50}
noise_threshold: 12
profiles:
  conflict:
    decay_rate: 1
    keywords: ["ceasefire"]
  sports:
    decay_rate: 4
    aligned_categories: ["sports"]
    breaking_boost: 0
`

// TestParseRankingFile は設定ファイルの値がSourceRankerとプロファイルに反映されることを検証する。
func TestParseRankingFile(t *testing.T) {
	rf, err := ParseRankingFile([]byte(sampleRankingYAML))
	if err != nil {
		t.Fatalf("ParseRankingFile returned error: %v", err)
	}
	if rf.NoiseThreshold != 12 {
		t.Errorf("NoiseThreshold = %v, want 12", rf.NoiseThreshold)
	}

	sr := rf.SourceRanker()
	if got := sr.Classify("Example Wire Service"); got != model.Tier1 {
		t.Errorf("Classify(Example Wire Service) = %s, want tier1", got)
	}
	// tier1を上書きしたため組み込みのBBCは一致しない
	if got := sr.Classify("BBC"); got != model.Tier3 {
		t.Errorf("Classify(BBC) = %s, want tier3", got)
	}
	// tier2は組み込みリストのまま倍率のみ上書き
	if got := sr.ScoreWithSource(10, "Press TV"); got != 70 {
		t.Errorf("ScoreWithSource(10, Press TV) = %v, want 70", got)
	}

	profiles := rf.Profiles()
	conflict := profiles[ranking.ProfileConflict]
	if conflict.DecayRate != 3 {
		t.Errorf("conflict decay = %v, want clamped 3", conflict.DecayRate)
	}
	if !slices.Equal(conflict.Keywords, []string{"ceasefire"}) {
		t.Errorf("conflict keywords = %v", conflict.Keywords)
	}
	if conflict.BreakingBoost != 50 {
		t.Errorf("conflict breaking boost = %v, want default 50", conflict.BreakingBoost)
	}

	sports, ok := profiles["sports"]
	if !ok {
		t.Fatal("sports profile not created")
	}
	if sports.Name != "sports" || sports.DecayRate != 4 || sports.BreakingBoost != 0 {
		t.Errorf("sports = %+v", sports)
	}
	if sports.TitleKeywordWeight != 25 {
		t.Errorf("sports should inherit general weights, got %+v", sports)
	}
	if _, ok := profiles[ranking.ProfileRegional]; !ok {
		t.Error("built-in regional profile should be kept")
	}
}

// TestParseRankingFile_Invalid は不正な設定がエラーになることを検証する。
func TestParseRankingFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"YAML構文エラー", "tiers: [unclosed"},
		{"未知のmatcher", "matcher: fuzzy"},
		{"未知のティア", "multipliers:\n  tier9: {factor: 1}"},
		{"負のしきい値", "noise_threshold: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRankingFile([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestLoadRankingFile はファイルパスの有無による読み込みを検証する。
func TestLoadRankingFile(t *testing.T) {
	rf, err := LoadRankingFile("")
	if err != nil {
		t.Fatalf("empty path returned error: %v", err)
	}
	if got := rf.SourceRanker().Classify("BBC News"); got != model.Tier1 {
		t.Errorf("default ranker Classify(BBC News) = %s, want tier1", got)
	}

	path := filepath.Join(t.TempDir(), "ranking.yaml")
	if err := os.WriteFile(path, []byte(sampleRankingYAML), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadRankingFile(path); err != nil {
		t.Errorf("LoadRankingFile returned error: %v", err)
	}
	if _, err := LoadRankingFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestLoadRankingFile_BundledConfig はリポジトリ同梱のランキング設定が読み込めることを検証する。
func TestLoadRankingFile_BundledConfig(t *testing.T) {
	rf, err := LoadRankingFile(filepath.Join("..", "..", "config", "ranking.yaml"))
	if err != nil {
		t.Fatalf("bundled ranking.yaml failed to load: %v", err)
	}
	if got := rf.SourceRanker().Classify("Reuters"); got != model.Tier1 {
		t.Errorf("Classify(Reuters) = %s, want tier1", got)
	}
	if p := rf.Profiles()["conflict"]; p.DecayRate != 8 {
		t.Errorf("conflict DecayRate = %v, want 8", p.DecayRate)
	}
}
