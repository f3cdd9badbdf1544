package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/ranking"
)

// RankingFile はランキング設定ファイル（YAML）の内容。
// 指定のない項目は組み込みの既定値を使う。
type RankingFile struct {
	// Matcher は配信元名の照合方式（substring または token）。
	Matcher         string                       `yaml:"matcher"`
	Tiers           *TierSection                 `yaml:"tiers"`
	Multipliers     map[string]MultiplierSection `yaml:"multipliers"`
	ProfileSections map[string]ProfileSection    `yaml:"profiles"`
	NoiseThreshold  float64                      `yaml:"noise_threshold"`
}

// TierSection はティアごとの配信元名リスト。空のティアは既定値を使う。
type TierSection struct {
	Tier1 []string `yaml:"tier1"`
	Tier2 []string `yaml:"tier2"`
	Tier3 []string `yaml:"tier3"`
}

// MultiplierSection はティアの倍率と固定ボーナス。
type MultiplierSection struct {
	Factor float64 `yaml:"factor"`
	Bonus  float64 `yaml:"bonus"`
}

// ProfileSection はフィードプロファイルの上書き設定。
type ProfileSection struct {
	DecayRate         float64  `yaml:"decay_rate"`
	Keywords          []string `yaml:"keywords"`
	AlignedCategories []string `yaml:"aligned_categories"`
	AlignedTags       []string `yaml:"aligned_tags"`
	BreakingBoost     *float64 `yaml:"breaking_boost"`
}

// LoadRankingFile はYAMLのランキング設定ファイルを読み込む。
// pathが空の場合は空のRankingFile（すべて既定値）を返す。
func LoadRankingFile(path string) (*RankingFile, error) {
	if path == "" {
		return &RankingFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ランキング設定ファイルの読み込みに失敗しました: %w", err)
	}
	return ParseRankingFile(data)
}

// ParseRankingFile はYAMLを解析し、値を検証する。
func ParseRankingFile(data []byte) (*RankingFile, error) {
	var rf RankingFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("ランキング設定ファイルの解析に失敗しました: %w", err)
	}

	switch strings.ToLower(rf.Matcher) {
	case "", "substring", "token":
	default:
		return nil, fmt.Errorf("未知のmatcherです: %s", rf.Matcher)
	}
	for tier := range rf.Multipliers {
		if !validTier(tier) {
			return nil, fmt.Errorf("未知のティアです: %s", tier)
		}
	}
	if rf.NoiseThreshold < 0 {
		return nil, fmt.Errorf("noise_thresholdは0以上を指定してください: %v", rf.NoiseThreshold)
	}
	return &rf, nil
}

func validTier(s string) bool {
	switch model.SourceTier(s) {
	case model.Tier1, model.Tier2, model.Tier3:
		return true
	}
	return false
}

// SourceRanker は設定を反映したSourceRankerを生成する。
func (rf *RankingFile) SourceRanker() *ranking.SourceRanker {
	lists := ranking.DefaultTierLists()
	if rf.Tiers != nil {
		if len(rf.Tiers.Tier1) > 0 {
			lists.Tier1 = rf.Tiers.Tier1
		}
		if len(rf.Tiers.Tier2) > 0 {
			lists.Tier2 = rf.Tiers.Tier2
		}
		if len(rf.Tiers.Tier3) > 0 {
			lists.Tier3 = rf.Tiers.Tier3
		}
	}

	table := make(ranking.MultiplierTable, len(rf.Multipliers))
	for tier, m := range rf.Multipliers {
		table[model.SourceTier(tier)] = ranking.Multiplier{Factor: m.Factor, Bonus: m.Bonus}
	}

	var matcher ranking.Matcher
	if strings.EqualFold(rf.Matcher, "token") {
		matcher = ranking.TokenMatcher{}
	}
	return ranking.NewSourceRanker(lists, table, matcher)
}

// Profiles は組み込みプロファイルに設定ファイルの上書きを適用した結果を返す。
// 組み込みにない名前は一般プロファイルを基に新規作成する。
func (rf *RankingFile) Profiles() map[string]ranking.FeedProfile {
	profiles := ranking.DefaultProfiles()
	for name, section := range rf.ProfileSections {
		key := strings.ToLower(name)
		p, ok := profiles[key]
		if !ok {
			p = profiles[ranking.ProfileGeneral]
			p.Name = key
		}
		if section.DecayRate != 0 {
			p.DecayRate = ranking.ClampDecay(section.DecayRate)
		}
		if section.Keywords != nil {
			p.Keywords = section.Keywords
		}
		if section.AlignedCategories != nil {
			p.AlignedCategories = section.AlignedCategories
		}
		if section.AlignedTags != nil {
			p.AlignedTags = section.AlignedTags
		}
		if section.BreakingBoost != nil {
			p.BreakingBoost = *section.BreakingBoost
		}
		profiles[key] = p
	}
	return profiles
}
