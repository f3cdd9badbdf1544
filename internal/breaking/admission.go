package breaking

import "github.com/hitoshi/newspulse/internal/model"

// Admit は表示時の信頼度フィルタ。緊急度が高いほど上位ティアの配信元を要求する。
// 80以上はtier1、60以上はtier1またはtier2、それ未満はすべて通過する。
// 保存時の優先度判定とは独立しており、表示対象の絞り込みにのみ使う。
func Admit(urgency int, tier model.SourceTier) bool {
	switch {
	case urgency >= CriticalThreshold:
		return tier == model.Tier1
	case urgency >= HighThreshold:
		return tier == model.Tier1 || tier == model.Tier2
	default:
		return true
	}
}
