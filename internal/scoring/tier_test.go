package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/crmcore/internal/config"
)

func TestTierFor(t *testing.T) {
	th := config.ThresholdsConfig{TierWarm: 25, TierHot: 60, TierVeryHot: 100}

	tests := []struct {
		name  string
		score int
		want  string
	}{
		{"below warm is cold", 10, tierCold},
		{"exactly warm boundary", 25, tierWarm},
		{"between warm and hot", 40, tierWarm},
		{"exactly hot boundary", 60, tierHot},
		{"between hot and very hot", 80, tierHot},
		{"exactly very hot boundary", 100, tierVeryHot},
		{"well above very hot", 500, tierVeryHot},
		{"zero score is cold", 0, tierCold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tierFor(tt.score, th))
		})
	}
}
