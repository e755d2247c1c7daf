package config

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

// Registry holds immutable rule/pipeline snapshots behind atomic pointers:
// rules are read once at worker startup, accessed lock-free, and a reload
// is a full replacement via atomic pointer swap. Registry never blocks a
// reader during a SIGHUP-triggered reload.
type Registry struct {
	scoring           atomic.Pointer[scoringSnapshot]
	intent            atomic.Pointer[intentSnapshot]
	pipelines         atomic.Pointer[pipelineSnapshot]
	automation        atomic.Pointer[automationSnapshot]
	intentPipelineMap atomic.Pointer[map[models.Intent]string]
}

type scoringSnapshot struct {
	bySlug    map[string]*models.ScoringRule
	ordered   []*models.ScoringRule
}

type intentSnapshot struct {
	rules []*models.IntentRule
}

type pipelineSnapshot struct {
	defSlug string
}

type automationSnapshot struct {
	ordered []*models.AutomationRule
}

// NewRegistry builds a Registry from a loaded Config.
func NewRegistry(cfg *Config) (*Registry, error) {
	r := &Registry{}
	if err := r.Reload(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload atomically replaces every snapshot from the given Config. Safe to
// call concurrently with readers; readers never observe a torn state since
// each snapshot type swaps independently and every field within a
// snapshot is immutable after construction.
func (r *Registry) Reload(cfg *Config) error {
	r.scoring.Store(buildScoringSnapshot(cfg.ScoringRules))
	r.intent.Store(buildIntentSnapshot(cfg.IntentRules))
	ps, err := buildPipelineSnapshot(cfg.Pipelines)
	if err != nil {
		return err
	}
	r.pipelines.Store(ps)
	r.automation.Store(buildAutomationSnapshot(cfg.AutomationRules))
	m := cfg.IntentPipelineMap
	r.intentPipelineMap.Store(&m)
	return nil
}

func buildScoringSnapshot(cfgs []ScoringRuleConfig) *scoringSnapshot {
	snap := &scoringSnapshot{bySlug: make(map[string]*models.ScoringRule, len(cfgs))}
	for _, c := range cfgs {
		if !c.IsActive {
			continue
		}
		rule := &models.ScoringRule{
			ID: c.ID, Slug: c.Slug, Category: c.Category, RuleType: c.RuleType,
			Event: c.Event, Fields: c.Fields, Points: c.Points,
			MaxPerDay: c.MaxPerDay, MaxPerLead: c.MaxPerLead, DecayDays: c.DecayDays,
			IsActive: c.IsActive, Priority: c.Priority,
		}
		snap.bySlug[c.ID] = rule
		snap.ordered = append(snap.ordered, rule)
	}
	sort.SliceStable(snap.ordered, func(i, j int) bool {
		return snap.ordered[i].Priority < snap.ordered[j].Priority
	})
	return snap
}

func buildIntentSnapshot(cfgs []IntentRuleConfig) *intentSnapshot {
	snap := &intentSnapshot{}
	for _, c := range cfgs {
		snap.rules = append(snap.rules, &models.IntentRule{
			RuleID: c.RuleID, EventType: c.EventType, Metadata: c.Metadata,
			Intent: c.Intent, ConfidencePoints: c.ConfidencePoints,
		})
	}
	return snap
}

// buildPipelineSnapshot tracks only which slug is the default. Full
// pipeline/stage shapes (with real database ids) are loaded on demand
// from internal/store, since the registry's config-only Pipeline/Stage
// values never carry a database id a deal's foreign keys could reference.
func buildPipelineSnapshot(cfgs []PipelineConfig) (*pipelineSnapshot, error) {
	snap := &pipelineSnapshot{}
	for _, c := range cfgs {
		if c.IsDefault {
			snap.defSlug = c.Slug
		}
	}
	return snap, nil
}

func buildAutomationSnapshot(cfgs []AutomationRuleConfig) *automationSnapshot {
	snap := &automationSnapshot{}
	for _, c := range cfgs {
		if !c.IsActive {
			continue
		}
		snap.ordered = append(snap.ordered, &models.AutomationRule{
			ID: c.ID, Trigger: c.Trigger, TriggerConfig: c.TriggerConfig,
			Action:   models.AutomationAction{Type: c.Action.Type, Config: c.Action.Config},
			Priority: c.Priority, IsActive: c.IsActive,
		})
	}
	sort.SliceStable(snap.ordered, func(i, j int) bool { return snap.ordered[i].Priority < snap.ordered[j].Priority })
	return snap
}

// ScoringRules returns the active scoring rules ordered by (priority asc).
func (r *Registry) ScoringRules() []*models.ScoringRule {
	s := r.scoring.Load()
	if s == nil {
		return nil
	}
	return s.ordered
}

// IntentRules returns the fixed intent-rule table.
func (r *Registry) IntentRules() []*models.IntentRule {
	s := r.intent.Load()
	if s == nil {
		return nil
	}
	return s.rules
}

// AutomationRules returns the active automation rules ordered by priority.
func (r *Registry) AutomationRules() []*models.AutomationRule {
	s := r.automation.Load()
	if s == nil {
		return nil
	}
	return s.ordered
}

// IntentPipelineSlug looks up the configured pipeline slug for a primary
// intent.
func (r *Registry) IntentPipelineSlug(i models.Intent) (string, bool) {
	m := r.intentPipelineMap.Load()
	if m == nil {
		return "", false
	}
	slug, ok := (*m)[i]
	return slug, ok
}

// DefaultPipelineSlug returns the slug of the pipeline marked is_default.
func (r *Registry) DefaultPipelineSlug() (string, error) {
	s := r.pipelines.Load()
	if s == nil || s.defSlug == "" {
		return "", fmt.Errorf("%w: no default pipeline configured", ErrPipelineNotFound)
	}
	return s.defSlug, nil
}
