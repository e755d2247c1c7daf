package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

func sampleConfig() *Config {
	return &Config{
		ScoringRules: []ScoringRuleConfig{
			{ID: "low-priority", Slug: "low", RuleType: models.RuleTypeEvent, IsActive: true, Priority: 10},
			{ID: "high-priority", Slug: "high", RuleType: models.RuleTypeEvent, IsActive: true, Priority: 1},
			{ID: "inactive", Slug: "off", RuleType: models.RuleTypeEvent, IsActive: false, Priority: 0},
		},
		Pipelines: []PipelineConfig{
			{Slug: "research", Name: "Research", Stages: []PipelineStageConfig{{Slug: "intro", Position: 0}}},
			{Slug: "b2b", Name: "B2B", IsDefault: true, Stages: []PipelineStageConfig{{Slug: "demo", Position: 0}}},
		},
		AutomationRules: []AutomationRuleConfig{
			{ID: "rule-low", Trigger: models.TriggerEvent, IsActive: true, Priority: 5},
			{ID: "rule-high", Trigger: models.TriggerEvent, IsActive: true, Priority: 1},
		},
		IntentPipelineMap: map[models.Intent]string{
			models.IntentResearch: "research",
			models.IntentB2B:      "b2b",
		},
	}
}

func TestRegistryScoringRulesOrderedByPriorityExcludesInactive(t *testing.T) {
	r, err := NewRegistry(sampleConfig())
	require.NoError(t, err)

	rules := r.ScoringRules()
	require.Len(t, rules, 2)
	assert.Equal(t, "high-priority", rules[0].ID)
	assert.Equal(t, "low-priority", rules[1].ID)
}

func TestRegistryAutomationRulesOrderedByPriority(t *testing.T) {
	r, err := NewRegistry(sampleConfig())
	require.NoError(t, err)

	rules := r.AutomationRules()
	require.Len(t, rules, 2)
	assert.Equal(t, "rule-high", rules[0].ID)
	assert.Equal(t, "rule-low", rules[1].ID)
}

func TestRegistryDefaultPipelineSlug(t *testing.T) {
	r, err := NewRegistry(sampleConfig())
	require.NoError(t, err)

	slug, err := r.DefaultPipelineSlug()
	require.NoError(t, err)
	assert.Equal(t, "b2b", slug)
}

func TestRegistryIntentPipelineSlug(t *testing.T) {
	r, err := NewRegistry(sampleConfig())
	require.NoError(t, err)

	slug, ok := r.IntentPipelineSlug(models.IntentResearch)
	assert.True(t, ok)
	assert.Equal(t, "research", slug)

	_, ok = r.IntentPipelineSlug(models.IntentCoCreation)
	assert.False(t, ok)
}

func TestRegistryDefaultPipelineSlugErrorsWithoutDefault(t *testing.T) {
	cfg := sampleConfig()
	cfg.Pipelines = []PipelineConfig{
		{Slug: "research", Name: "Research", Stages: []PipelineStageConfig{{Slug: "intro", Position: 0}}},
	}
	r, err := NewRegistry(cfg)
	require.NoError(t, err)

	_, err = r.DefaultPipelineSlug()
	assert.ErrorIs(t, err, ErrPipelineNotFound)
}

func TestRegistryReloadReplacesSnapshotAtomically(t *testing.T) {
	r, err := NewRegistry(sampleConfig())
	require.NoError(t, err)
	require.Len(t, r.ScoringRules(), 2)

	updated := sampleConfig()
	updated.ScoringRules = []ScoringRuleConfig{
		{ID: "only-rule", Slug: "only", RuleType: models.RuleTypeEvent, IsActive: true, Priority: 0},
	}
	require.NoError(t, r.Reload(updated))

	rules := r.ScoringRules()
	require.Len(t, rules, 1)
	assert.Equal(t, "only-rule", rules[0].ID)
}
