package ranking

import "github.com/hitoshi/newspulse/internal/model"

// TierLists はティアごとのキュレーション済み配信元名リスト。
type TierLists struct {
	Tier1 []string
	Tier2 []string
	Tier3 []string
}

// DefaultTierLists は組み込みの配信元リストを返す。
func DefaultTierLists() TierLists {
	return TierLists{
		Tier1: []string{
			"bbc", "cnn", "reuters", "al jazeera", "aljazeera", "associated press",
			"ap news", "new york times", "nytimes", "the guardian", "washington post",
			"france24", "deutsche welle",
		},
		Tier2: []string{
			"jerusalem post", "middle east eye", "al-monitor", "press tv", "tehran times",
			"radio free europe", "the hindu", "india today", "channel news asia",
			"prothom alo", "daily star",
		},
		Tier3: []string{
			"bangla tribune", "bd24live", "risingbd", "bangladesh diplomat",
			"energy bangla", "jagonews24", "daily bangladesh", "blitz",
		},
	}
}

// Multiplier はティアごとのスコア倍率と固定ボーナス。
type Multiplier struct {
	Factor float64
	Bonus  float64
}

// MultiplierTable はティアから倍率への対応表。
type MultiplierTable map[model.SourceTier]Multiplier

// DefaultMultipliers は唯一の正規の倍率表を返す。
// tier1: ×3.0+200, tier2: ×1.8+80, tier3: ×1.0+0
func DefaultMultipliers() MultiplierTable {
	return MultiplierTable{
		model.Tier1: {Factor: 3.0, Bonus: 200},
		model.Tier2: {Factor: 1.8, Bonus: 80},
		model.Tier3: {Factor: 1.0, Bonus: 0},
	}
}

// SourceRanker は配信元名に信頼度ティアを割り当てる。
// 判定は全域関数であり、どの入力に対しても必ずいずれかのティアを返す。
type SourceRanker struct {
	tiers       [3][]string
	multipliers MultiplierTable
	matcher     Matcher
}

// NewSourceRanker はSourceRankerを生成する。
// matcherがnilの場合はSubstringMatcherを使用する。
// multipliersに欠けているティアはデフォルト値で補完する。
func NewSourceRanker(lists TierLists, multipliers MultiplierTable, matcher Matcher) *SourceRanker {
	if matcher == nil {
		matcher = SubstringMatcher{}
	}
	table := DefaultMultipliers()
	for tier, m := range multipliers {
		table[tier] = m
	}
	return &SourceRanker{
		tiers:       [3][]string{normalizeAll(lists.Tier1), normalizeAll(lists.Tier2), normalizeAll(lists.Tier3)},
		multipliers: table,
		matcher:     matcher,
	}
}

// NewDefaultSourceRanker は組み込みリストと倍率表でSourceRankerを生成する。
func NewDefaultSourceRanker() *SourceRanker {
	return NewSourceRanker(DefaultTierLists(), DefaultMultipliers(), nil)
}

// Classify は配信元名のティアを判定する。
// tier1→tier2→tier3の順に照合し、最初に一致したティアを返す。どれにも一致しなければtier3。
func (r *SourceRanker) Classify(sourceName string) model.SourceTier {
	name := normalize(sourceName)
	if name == "" {
		return model.Tier3
	}
	for i, tier := range []model.SourceTier{model.Tier1, model.Tier2, model.Tier3} {
		for _, candidate := range r.tiers[i] {
			if r.matcher.Match(name, candidate) {
				return tier
			}
		}
	}
	return model.Tier3
}

// ScoreWithSource はティアに応じた倍率とボーナスをベーススコアに適用する。
func (r *SourceRanker) ScoreWithSource(baseScore float64, sourceName string) float64 {
	m := r.multipliers[r.Classify(sourceName)]
	return baseScore*m.Factor + m.Bonus
}

func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if v := normalize(n); v != "" {
			out = append(out, v)
		}
	}
	return out
}
