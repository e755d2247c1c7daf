package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/config"
)

// Seed writes the config-defined pipelines/stages, scoring rules, and
// automation rules into their mirroring tables so the routing worker's
// deal/stage foreign keys have stable database ids to point at. The
// Registry, not these tables, remains the live source of truth the
// engines evaluate against.
func Seed(ctx context.Context, c *Client, cfg *config.Config) error {
	if err := seedPipelines(ctx, c, cfg); err != nil {
		return fmt.Errorf("seed pipelines: %w", err)
	}
	if err := seedScoringRules(ctx, c, cfg); err != nil {
		return fmt.Errorf("seed scoring rules: %w", err)
	}
	if err := seedAutomationRules(ctx, c, cfg); err != nil {
		return fmt.Errorf("seed automation rules: %w", err)
	}
	return nil
}

func seedPipelines(ctx context.Context, c *Client, cfg *config.Config) error {
	for _, p := range cfg.Pipelines {
		pipelineID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("pipeline:"+p.Slug)).String()
		_, err := c.DB.ExecContext(ctx, `
			INSERT INTO pipelines (id, slug, name, is_default) VALUES ($1,$2,$3,$4)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, is_default = EXCLUDED.is_default
		`, pipelineID, p.Slug, p.Name, p.IsDefault)
		if err != nil {
			return fmt.Errorf("upsert pipeline %s: %w", p.Slug, err)
		}
		for _, s := range p.Stages {
			stageID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("stage:"+p.Slug+":"+s.Slug)).String()
			automationConfig, err := json.Marshal(s.AutomationConfig)
			if err != nil {
				return fmt.Errorf("marshal automation_config for %s/%s: %w", p.Slug, s.Slug, err)
			}
			_, err = c.DB.ExecContext(ctx, `
				INSERT INTO pipeline_stages (id, pipeline_id, slug, name, position, stage_type, automation_config)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
				ON CONFLICT (pipeline_id, slug) DO UPDATE SET
					name = EXCLUDED.name, position = EXCLUDED.position,
					stage_type = EXCLUDED.stage_type, automation_config = EXCLUDED.automation_config
			`, stageID, pipelineID, s.Slug, s.Name, s.Position, nullStr(s.StageType), automationConfig)
			if err != nil {
				return fmt.Errorf("upsert stage %s/%s: %w", p.Slug, s.Slug, err)
			}
		}
	}
	return nil
}

func seedScoringRules(ctx context.Context, c *Client, cfg *config.Config) error {
	for _, r := range cfg.ScoringRules {
		event, err := json.Marshal(r.Event)
		if err != nil {
			return err
		}
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return err
		}
		conditions := event
		if r.RuleType == "field" {
			conditions = fields
		}
		_, err = c.DB.ExecContext(ctx, `
			INSERT INTO scoring_rules (id, slug, category, rule_type, conditions, points, max_per_day, max_per_lead, decay_days, is_active, priority)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (id) DO UPDATE SET
				slug = EXCLUDED.slug, category = EXCLUDED.category, rule_type = EXCLUDED.rule_type,
				conditions = EXCLUDED.conditions, points = EXCLUDED.points,
				max_per_day = EXCLUDED.max_per_day, max_per_lead = EXCLUDED.max_per_lead,
				decay_days = EXCLUDED.decay_days, is_active = EXCLUDED.is_active, priority = EXCLUDED.priority
		`, r.ID, r.Slug, r.Category, r.RuleType, conditions, r.Points, r.MaxPerDay, r.MaxPerLead, r.DecayDays, r.IsActive, r.Priority)
		if err != nil {
			return fmt.Errorf("upsert scoring rule %s: %w", r.ID, err)
		}
	}
	return nil
}

func seedAutomationRules(ctx context.Context, c *Client, cfg *config.Config) error {
	for _, r := range cfg.AutomationRules {
		triggerConfig, err := json.Marshal(r.TriggerConfig)
		if err != nil {
			return err
		}
		actionConfig, err := json.Marshal(r.Action.Config)
		if err != nil {
			return err
		}
		_, err = c.DB.ExecContext(ctx, `
			INSERT INTO automation_rules (id, trigger_type, trigger_config, action_type, action_config, priority, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO UPDATE SET
				trigger_type = EXCLUDED.trigger_type, trigger_config = EXCLUDED.trigger_config,
				action_type = EXCLUDED.action_type, action_config = EXCLUDED.action_config,
				priority = EXCLUDED.priority, is_active = EXCLUDED.is_active
		`, r.ID, r.Trigger, triggerConfig, r.Action.Type, actionConfig, r.Priority, r.IsActive)
		if err != nil {
			return fmt.Errorf("upsert automation rule %s: %w", r.ID, err)
		}
	}
	return nil
}
