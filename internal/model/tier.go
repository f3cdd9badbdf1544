package model

// SourceTier は配信元の信頼度ティアを表す。
// 配信元名から導出される値であり、保存はしない。
type SourceTier string

const (
	// Tier1 は国際的な大手報道機関。
	Tier1 SourceTier = "tier1"
	// Tier2 は地域の主要報道機関。
	Tier2 SourceTier = "tier2"
	// Tier3 はそれ以外のローカル・未分類の配信元。
	Tier3 SourceTier = "tier3"
)

// Priority はティアに対応する整数優先度を返す。
func (t SourceTier) Priority() int {
	switch t {
	case Tier1:
		return 100
	case Tier2:
		return 70
	default:
		return 40
	}
}

// Rank はソート用の順位値を返す。大きいほど上位。
func (t SourceTier) Rank() int {
	switch t {
	case Tier1:
		return 3
	case Tier2:
		return 2
	default:
		return 1
	}
}

// Badge はUI表示用のラベルを返す。
func (t SourceTier) Badge() string {
	switch t {
	case Tier1:
		return "Premium"
	case Tier2:
		return "Regional"
	default:
		return "Local"
	}
}
