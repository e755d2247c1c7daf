package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentSummaryArgmax(t *testing.T) {
	tests := []struct {
		name     string
		summary  IntentSummary
		wantI    Intent
		wantVal  int
	}{
		{
			name:    "all zero returns empty",
			summary: IntentSummary{},
			wantI:   "",
			wantVal: 0,
		},
		{
			name:    "clear winner",
			summary: IntentSummary{Research: 10, B2B: 40, CoCreation: 5},
			wantI:   IntentB2B,
			wantVal: 40,
		},
		{
			name:    "tie breaks toward research",
			summary: IntentSummary{Research: 20, B2B: 20, CoCreation: 20},
			wantI:   IntentResearch,
			wantVal: 20,
		},
		{
			name:    "tie between b2b and co_creation breaks toward b2b",
			summary: IntentSummary{Research: 5, B2B: 30, CoCreation: 30},
			wantI:   IntentB2B,
			wantVal: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotI, gotVal := tt.summary.Argmax()
			assert.Equal(t, tt.wantI, gotI)
			assert.Equal(t, tt.wantVal, gotVal)
		})
	}
}

func TestIntentSummarySecondBest(t *testing.T) {
	tests := []struct {
		name    string
		summary IntentSummary
		top     Intent
		want    int
	}{
		{
			name:    "second place value",
			summary: IntentSummary{Research: 10, B2B: 40, CoCreation: 25},
			top:     IntentB2B,
			want:    25,
		},
		{
			name:    "no signal at all",
			summary: IntentSummary{},
			top:     "",
			want:    0,
		},
		{
			name:    "second place tied with top value but different intent",
			summary: IntentSummary{Research: 30, B2B: 30, CoCreation: 5},
			top:     IntentResearch,
			want:    30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.SecondBest(tt.top))
		})
	}
}

func TestLeadTotalOf(t *testing.T) {
	lead := &Lead{DemographicScore: 10, EngagementScore: 20, BehaviorScore: 5}
	assert.Equal(t, 35, lead.TotalOf())
}
