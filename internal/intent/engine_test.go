package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

func TestMatchIntentRule(t *testing.T) {
	tests := []struct {
		name      string
		rule      *models.IntentRule
		eventType string
		metadata  map[string]any
		want      bool
	}{
		{
			name:      "event type mismatch",
			rule:      &models.IntentRule{EventType: "pricing_page_view"},
			eventType: "newsletter_signup",
			want:      false,
		},
		{
			name:      "event type only matches",
			rule:      &models.IntentRule{EventType: "pricing_page_view"},
			eventType: "pricing_page_view",
			want:      true,
		},
		{
			name:      "metadata predicate missing key fails",
			rule:      &models.IntentRule{EventType: "webinar_registered", Metadata: map[string]any{"topic": "case_study"}},
			eventType: "webinar_registered",
			metadata:  map[string]any{},
			want:      false,
		},
		{
			name:      "metadata predicate matches",
			rule:      &models.IntentRule{EventType: "webinar_registered", Metadata: map[string]any{"topic": "case_study"}},
			eventType: "webinar_registered",
			metadata:  map[string]any{"topic": "case_study"},
			want:      true,
		},
		{
			name:      "metadata predicate value mismatch",
			rule:      &models.IntentRule{EventType: "webinar_registered", Metadata: map[string]any{"topic": "case_study"}},
			eventType: "webinar_registered",
			metadata:  map[string]any{"topic": "product_demo"},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchIntentRule(tt.rule, tt.eventType, tt.metadata))
		})
	}
}
