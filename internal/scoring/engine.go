package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/models"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

// Engine evaluates scoring rules against one event/lead pair inside an
// already-open transaction, the way the event worker's processing
// pipeline requires it.
type Engine struct {
	store      *store.Client
	registry   *config.Registry
	thresholds config.ThresholdsConfig
	now        func() time.Time
}

// NewEngine builds an Engine reading its active rule set from registry.
func NewEngine(st *store.Client, registry *config.Registry, thresholds config.ThresholdsConfig) *Engine {
	return &Engine{store: st, registry: registry, thresholds: thresholds, now: time.Now}
}

// Apply matches every active scoring rule against event (rule_type=event)
// or the current lead/organization state (rule_type=field), respecting
// max_per_day/max_per_lead caps, appends score_history for each match,
// invokes the recalc primitive once, and reports any WARM/HOT/VERY_HOT
// tier crossing that resulted.
func (e *Engine) Apply(ctx context.Context, tx *sql.Tx, lead *models.Lead, org *models.Organization, event *models.MarketingEvent) ([]models.TierCrossing, error) {
	oldTotal := lead.TotalOf()
	matchedAny := false

	for _, rule := range e.registry.ScoringRules() {
		var matched bool
		switch rule.RuleType {
		case models.RuleTypeEvent:
			matched = matchEventConditions(rule.Event, event.EventType, event.Metadata)
		case models.RuleTypeField:
			matched = matchAllFieldConditions(rule.Fields, lead, org)
		}
		if !matched {
			continue
		}

		if rule.MaxPerDay != nil {
			n, err := e.store.Scoring.CountToday(ctx, lead.ID, rule.ID)
			if err != nil {
				return nil, fmt.Errorf("count today for rule %s: %w", rule.ID, err)
			}
			if n >= *rule.MaxPerDay {
				continue
			}
		}
		if rule.MaxPerLead != nil {
			n, err := e.store.Scoring.CountAllTime(ctx, lead.ID, rule.ID)
			if err != nil {
				return nil, fmt.Errorf("count all-time for rule %s: %w", rule.ID, err)
			}
			if n >= *rule.MaxPerLead {
				continue
			}
		}

		var expiresAt *time.Time
		if rule.DecayDays != nil {
			t := e.now().AddDate(0, 0, *rule.DecayDays)
			expiresAt = &t
		}

		runningTotal, err := e.store.Scoring.CategoryTotal(ctx, tx, lead.ID, rule.Category)
		if err != nil {
			return nil, fmt.Errorf("category total for rule %s: %w", rule.ID, err)
		}

		eventID := event.ID
		hist := &models.ScoreHistory{
			LeadID:    lead.ID,
			EventID:   &eventID,
			RuleID:    rule.ID,
			Category:  rule.Category,
			Points:    rule.Points,
			NewTotal:  runningTotal + rule.Points,
			ExpiresAt: expiresAt,
		}
		if err := e.store.Scoring.InsertHistory(ctx, tx, hist); err != nil {
			return nil, fmt.Errorf("insert history for rule %s: %w", rule.ID, err)
		}
		if err := e.store.Events.SetFirstScore(ctx, tx, event.ID, rule.Points, rule.Category); err != nil {
			return nil, fmt.Errorf("set first score for event %s: %w", event.ID, err)
		}
		matchedAny = true
	}

	if !matchedAny {
		return nil, nil
	}

	if err := e.store.Scoring.Recalc(ctx, tx, lead.ID); err != nil {
		return nil, err
	}

	updated, err := e.store.Leads.GetForUpdate(ctx, tx, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("reload lead after recalc: %w", err)
	}
	*lead = *updated
	newTotal := lead.TotalOf()

	oldTier, newTier := tierFor(oldTotal, e.thresholds), tierFor(newTotal, e.thresholds)
	if oldTier == newTier {
		return nil, nil
	}
	return []models.TierCrossing{{
		LeadID:   lead.ID,
		OldScore: oldTotal,
		NewScore: newTotal,
		OldTier:  oldTier,
		NewTier:  newTier,
	}}, nil
}
