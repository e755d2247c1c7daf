package scoring

import "github.com/codeready-toolchain/crmcore/internal/config"

const (
	tierCold    = "cold"
	tierWarm    = "warm"
	tierHot     = "hot"
	tierVeryHot = "very_hot"
)

// tierFor buckets a total_score against the configured WARM/HOT/VERY_HOT
// cutoffs, used to detect tier-crossing notifications.
func tierFor(score int, th config.ThresholdsConfig) string {
	switch {
	case score >= th.TierVeryHot:
		return tierVeryHot
	case score >= th.TierHot:
		return tierHot
	case score >= th.TierWarm:
		return tierWarm
	default:
		return tierCold
	}
}
