package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

func TestMatchEventConditions(t *testing.T) {
	tests := []struct {
		name      string
		cond      *models.EventConditions
		eventType string
		metadata  map[string]any
		want      bool
	}{
		{
			name:      "nil conditions never match",
			cond:      nil,
			eventType: "page_view",
			want:      false,
		},
		{
			name:      "event type mismatch",
			cond:      &models.EventConditions{EventType: "page_view"},
			eventType: "form_submit",
			want:      false,
		},
		{
			name:      "event type only, matches",
			cond:      &models.EventConditions{EventType: "page_view"},
			eventType: "page_view",
			want:      true,
		},
		{
			name:      "metadata key missing fails",
			cond:      &models.EventConditions{EventType: "page_view", Metadata: map[string]any{"page": "/pricing"}},
			eventType: "page_view",
			metadata:  map[string]any{},
			want:      false,
		},
		{
			name:      "metadata scalar equality matches",
			cond:      &models.EventConditions{EventType: "page_view", Metadata: map[string]any{"page": "/pricing"}},
			eventType: "page_view",
			metadata:  map[string]any{"page": "/pricing"},
			want:      true,
		},
		{
			name:      "metadata numeric comparison matches",
			cond:      &models.EventConditions{EventType: "form_submit", Metadata: map[string]any{"duration": map[string]any{"gte": float64(30)}}},
			eventType: "form_submit",
			metadata:  map[string]any{"duration": float64(45)},
			want:      true,
		},
		{
			name:      "metadata numeric comparison fails below threshold",
			cond:      &models.EventConditions{EventType: "form_submit", Metadata: map[string]any{"duration": map[string]any{"gte": float64(30)}}},
			eventType: "form_submit",
			metadata:  map[string]any{"duration": float64(10)},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchEventConditions(tt.cond, tt.eventType, tt.metadata))
		})
	}
}

func TestMatchAllFieldConditions(t *testing.T) {
	lead := &models.Lead{JobTitle: "VP of Engineering", Status: models.LeadStatusQualified}
	org := &models.Organization{Industry: "fintech", Size: "51-200"}

	tests := []struct {
		name   string
		fields []models.FieldCondition
		want   bool
	}{
		{
			name:   "empty conditions never match",
			fields: nil,
			want:   false,
		},
		{
			name: "single equals matches",
			fields: []models.FieldCondition{
				{Field: "status", Operator: models.OpEquals, Value: "qualified"},
			},
			want: true,
		},
		{
			name: "all must match, one fails",
			fields: []models.FieldCondition{
				{Field: "status", Operator: models.OpEquals, Value: "qualified"},
				{Field: "organization.industry", Operator: models.OpEquals, Value: "healthcare"},
			},
			want: false,
		},
		{
			name: "contains operator on job title",
			fields: []models.FieldCondition{
				{Field: "job_title", Operator: models.OpContains, Value: "Engineering"},
			},
			want: true,
		},
		{
			name: "pattern operator on job title",
			fields: []models.FieldCondition{
				{Field: "job_title", Operator: models.OpPattern, Value: "^VP"},
			},
			want: true,
		},
		{
			name: "contains operator is case-insensitive",
			fields: []models.FieldCondition{
				{Field: "job_title", Operator: models.OpContains, Value: "engineering"},
			},
			want: true,
		},
		{
			name: "pattern operator is case-insensitive",
			fields: []models.FieldCondition{
				{Field: "job_title", Operator: models.OpPattern, Value: "^vp"},
			},
			want: true,
		},
		{
			name: "in operator against organization size",
			fields: []models.FieldCondition{
				{Field: "organization.size", Operator: models.OpIn, Value: []any{"11-50", "51-200"}},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAllFieldConditions(tt.fields, lead, org))
		})
	}
}

func TestFieldValueOrganizationNil(t *testing.T) {
	lead := &models.Lead{}
	assert.Equal(t, "", fieldValue(lead, nil, "organization.industry"))
	assert.Equal(t, "", fieldValue(lead, nil, "organization.size"))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    float64
		wantOK  bool
	}{
		{"float64", float64(3.5), 3.5, true},
		{"int", 7, 7, true},
		{"numeric string", "12.5", 12.5, true},
		{"non-numeric string", "abc", 0, false},
		{"unsupported type", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
