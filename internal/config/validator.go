package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator validates a Config comprehensively with clear error messages,
// running one component-ordered pass over each section.
type Validator struct {
	cfg *Config
	v   *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, v: validator.New()}
}

// ValidateAll performs comprehensive validation in dependency order:
// database -> queue -> thresholds -> scoring rules -> intent rules ->
// pipelines -> automation rules.
func (val *Validator) ValidateAll() error {
	if err := val.v.Struct(val.cfg.Database); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := val.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := val.validateThresholds(); err != nil {
		return fmt.Errorf("thresholds validation failed: %w", err)
	}
	if err := val.validateScoringRules(); err != nil {
		return fmt.Errorf("scoring rule validation failed: %w", err)
	}
	if err := val.validateIntentRules(); err != nil {
		return fmt.Errorf("intent rule validation failed: %w", err)
	}
	if err := val.validatePipelines(); err != nil {
		return fmt.Errorf("pipeline validation failed: %w", err)
	}
	if err := val.validateAutomationRules(); err != nil {
		return fmt.Errorf("automation rule validation failed: %w", err)
	}
	return nil
}

func (val *Validator) validateQueue() error {
	if val.cfg.Queue.BrokerDSN == "" {
		return NewValidationError("queue", "broker_dsn", "", ErrMissingBrokerDSN)
	}
	return nil
}

func (val *Validator) validateThresholds() error {
	t := val.cfg.Thresholds
	if t.RouteMinScore < 0 || t.RouteMinIntent < 0 || t.ConflictMargin < 0 {
		return NewValidationError("thresholds", "", "", ErrNegativeThreshold)
	}
	if !(t.TierWarm <= t.TierHot && t.TierHot <= t.TierVeryHot) {
		return NewValidationError("thresholds", "", "tier order", ErrTierOrder)
	}
	return nil
}

func (val *Validator) validateScoringRules() error {
	seen := make(map[string]bool, len(val.cfg.ScoringRules))
	for _, r := range val.cfg.ScoringRules {
		if err := val.v.Struct(r); err != nil {
			return NewValidationError("scoring_rule", r.ID, "", err)
		}
		if seen[r.ID] {
			return NewValidationError("scoring_rule", r.ID, "id", ErrDuplicateID)
		}
		seen[r.ID] = true
		if r.RuleType == "event" && r.Event == nil {
			return NewValidationError("scoring_rule", r.ID, "event", ErrMissingRequiredField)
		}
		if r.RuleType == "field" && len(r.Fields) == 0 {
			return NewValidationError("scoring_rule", r.ID, "fields", ErrMissingRequiredField)
		}
	}
	return nil
}

func (val *Validator) validateIntentRules() error {
	seen := make(map[string]bool, len(val.cfg.IntentRules))
	for _, r := range val.cfg.IntentRules {
		if err := val.v.Struct(r); err != nil {
			return NewValidationError("intent_rule", r.RuleID, "", err)
		}
		if seen[r.RuleID] {
			return NewValidationError("intent_rule", r.RuleID, "rule_id", ErrDuplicateID)
		}
		seen[r.RuleID] = true
	}
	return nil
}

func (val *Validator) validatePipelines() error {
	seen := make(map[string]bool, len(val.cfg.Pipelines))
	defaults := 0
	for _, p := range val.cfg.Pipelines {
		if err := val.v.Struct(p); err != nil {
			return NewValidationError("pipeline", p.Slug, "", err)
		}
		if seen[p.Slug] {
			return NewValidationError("pipeline", p.Slug, "slug", ErrDuplicateID)
		}
		seen[p.Slug] = true
		if p.IsDefault {
			defaults++
		}
	}
	if len(val.cfg.Pipelines) > 0 && defaults != 1 {
		return NewValidationError("pipeline", "", "is_default", ErrDefaultPipelineCount)
	}
	return nil
}

func (val *Validator) validateAutomationRules() error {
	seen := make(map[string]bool, len(val.cfg.AutomationRules))
	for _, r := range val.cfg.AutomationRules {
		if err := val.v.Struct(r); err != nil {
			return NewValidationError("automation_rule", r.ID, "", err)
		}
		if seen[r.ID] {
			return NewValidationError("automation_rule", r.ID, "id", ErrDuplicateID)
		}
		seen[r.ID] = true
	}
	return nil
}
