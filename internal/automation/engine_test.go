package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

func TestMatchesTrigger(t *testing.T) {
	tests := []struct {
		name string
		rule *models.AutomationRule
		tc   TriggerContext
		want bool
	}{
		{
			name: "event trigger matches",
			rule: &models.AutomationRule{Trigger: models.TriggerEvent, TriggerConfig: map[string]any{"event_type": "demo_requested"}},
			tc:   TriggerContext{EventType: "demo_requested"},
			want: true,
		},
		{
			name: "event trigger mismatch",
			rule: &models.AutomationRule{Trigger: models.TriggerEvent, TriggerConfig: map[string]any{"event_type": "demo_requested"}},
			tc:   TriggerContext{EventType: "pricing_page_view"},
			want: false,
		},
		{
			name: "event trigger with missing config never matches",
			rule: &models.AutomationRule{Trigger: models.TriggerEvent, TriggerConfig: map[string]any{}},
			tc:   TriggerContext{EventType: "demo_requested"},
			want: false,
		},
		{
			name: "event trigger with metadata predicate matches",
			rule: &models.AutomationRule{Trigger: models.TriggerEvent, TriggerConfig: map[string]any{
				"event_type": "page_view",
				"metadata":   map[string]any{"page": "/pricing"},
			}},
			tc:   TriggerContext{EventType: "page_view", Metadata: map[string]any{"page": "/pricing"}},
			want: true,
		},
		{
			name: "event trigger with metadata predicate mismatch",
			rule: &models.AutomationRule{Trigger: models.TriggerEvent, TriggerConfig: map[string]any{
				"event_type": "page_view",
				"metadata":   map[string]any{"page": "/pricing"},
			}},
			tc:   TriggerContext{EventType: "page_view", Metadata: map[string]any{"page": "/about"}},
			want: false,
		},
		{
			name: "score_threshold trigger matches tier",
			rule: &models.AutomationRule{Trigger: models.TriggerScoreThreshold, TriggerConfig: map[string]any{"tier": "hot"}},
			tc:   TriggerContext{Tier: "hot"},
			want: true,
		},
		{
			name: "score_threshold trigger mismatch",
			rule: &models.AutomationRule{Trigger: models.TriggerScoreThreshold, TriggerConfig: map[string]any{"tier": "hot"}},
			tc:   TriggerContext{Tier: "warm"},
			want: false,
		},
		{
			name: "intent_detected trigger matches",
			rule: &models.AutomationRule{Trigger: models.TriggerIntentDetected, TriggerConfig: map[string]any{"intent": "b2b"}},
			tc:   TriggerContext{Intent: models.IntentB2B},
			want: true,
		},
		{
			name: "intent_detected trigger mismatch",
			rule: &models.AutomationRule{Trigger: models.TriggerIntentDetected, TriggerConfig: map[string]any{"intent": "b2b"}},
			tc:   TriggerContext{Intent: models.IntentResearch},
			want: false,
		},
		{
			name: "stage_change trigger matches pipeline and stage",
			rule: &models.AutomationRule{Trigger: models.TriggerStageChange, TriggerConfig: map[string]any{"pipeline": "b2b", "stage": "demo"}},
			tc:   TriggerContext{PipelineSlug: "b2b", StageSlug: "demo"},
			want: true,
		},
		{
			name: "stage_change trigger mismatch on stage",
			rule: &models.AutomationRule{Trigger: models.TriggerStageChange, TriggerConfig: map[string]any{"pipeline": "b2b", "stage": "demo"}},
			tc:   TriggerContext{PipelineSlug: "b2b", StageSlug: "closed"},
			want: false,
		},
		{
			name: "time_in_stage trigger never matches event context",
			rule: &models.AutomationRule{Trigger: models.TriggerTimeInStage, TriggerConfig: map[string]any{"pipeline": "b2b", "stage": "demo", "days": float64(7)}},
			tc:   TriggerContext{PipelineSlug: "b2b", StageSlug: "demo"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesTrigger(tt.rule, tt.tc))
		})
	}
}
