// Package automation implements the rule-driven action engine: trigger
// evaluation against event/score/intent/stage context, the closed set of
// five action types, once-per-lead firing, and priority-ordered execution.
package automation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/models"
	"github.com/codeready-toolchain/crmcore/internal/queue"
	"github.com/codeready-toolchain/crmcore/internal/scoring"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

// Notifier delivers the send_notification and routing_conflict actions;
// implemented by internal/notify.
type Notifier interface {
	SendNotification(ctx context.Context, channel, message string) error
	RoutingConflict(ctx context.Context, lead *models.Lead, summary models.IntentSummary) error
}

// Engine evaluates and executes automation rules against a lead.
type Engine struct {
	store    *store.Client
	queue    *queue.Client
	registry *config.Registry
	notifier Notifier
	now      func() time.Time
}

// NewEngine builds an Engine reading its active rule set from registry.
func NewEngine(st *store.Client, qc *queue.Client, registry *config.Registry, notifier Notifier) *Engine {
	return &Engine{store: st, queue: qc, registry: registry, notifier: notifier, now: time.Now}
}

// TriggerContext carries the subset of event-processing state a rule's
// trigger_config may match against; zero-valued fields simply never
// satisfy a predicate that names them.
type TriggerContext struct {
	EventType    string
	Metadata     map[string]any
	Tier         string
	Intent       models.Intent
	PipelineSlug string
	StageSlug    string
}

// FireContext evaluates every active automation rule against tc in
// priority order, executing and once-per-lead-gating matches, and
// returns the ids of rules that fired.
func (e *Engine) FireContext(ctx context.Context, tx *sql.Tx, lead *models.Lead, tc TriggerContext) ([]string, error) {
	var fired []string
	for _, rule := range e.registry.AutomationRules() {
		if !matchesTrigger(rule, tc) {
			continue
		}
		already, err := e.store.Automation.HasFired(ctx, rule.ID, lead.ID)
		if err != nil {
			return fired, fmt.Errorf("check fired for rule %s: %w", rule.ID, err)
		}
		if already {
			continue
		}
		if err := e.ExecuteAction(ctx, tx, lead, rule.Action, rule.ID); err != nil {
			return fired, fmt.Errorf("execute rule %s: %w", rule.ID, err)
		}
		if err := e.store.Automation.MarkFired(ctx, tx, rule.ID, lead.ID, e.now()); err != nil {
			return fired, fmt.Errorf("mark fired rule %s: %w", rule.ID, err)
		}
		fired = append(fired, rule.ID)
	}
	return fired, nil
}

func matchesTrigger(rule *models.AutomationRule, tc TriggerContext) bool {
	switch rule.Trigger {
	case models.TriggerEvent:
		want, _ := rule.TriggerConfig["event_type"].(string)
		if want == "" || want != tc.EventType {
			return false
		}
		predicate, ok := rule.TriggerConfig["metadata"].(map[string]any)
		if !ok {
			return true
		}
		return scoring.MatchMetadata(predicate, tc.Metadata)
	case models.TriggerScoreThreshold:
		want, _ := rule.TriggerConfig["tier"].(string)
		return want != "" && want == tc.Tier
	case models.TriggerIntentDetected:
		want, _ := rule.TriggerConfig["intent"].(string)
		return want != "" && models.Intent(want) == tc.Intent
	case models.TriggerStageChange:
		wantPipeline, _ := rule.TriggerConfig["pipeline"].(string)
		wantStage, _ := rule.TriggerConfig["stage"].(string)
		return wantPipeline != "" && wantStage != "" &&
			wantPipeline == tc.PipelineSlug && wantStage == tc.StageSlug
	default:
		// time_in_stage is driven by CheckTimeInStage, not event context.
		return false
	}
}

// ExecuteAction runs one action against lead. Each of the five action
// types is a closed, hand-written case rather than a dynamic expression
// interpreter, so this stays a switch, not a registry of plugins.
func (e *Engine) ExecuteAction(ctx context.Context, tx *sql.Tx, lead *models.Lead, action models.AutomationAction, ruleID string) error {
	switch action.Type {
	case models.ActionSendNotification:
		channel, _ := action.Config["channel"].(string)
		message, _ := action.Config["message"].(string)
		if message == "" {
			message = fmt.Sprintf("Automation %s fired for lead %s", ruleID, lead.ID)
		}
		return e.notifier.SendNotification(ctx, channel, message)

	case models.ActionCreateTask:
		title, _ := action.Config["title"].(string)
		if title == "" {
			title = fmt.Sprintf("Follow up: automation %s", ruleID)
		}
		dueDays := 1
		if v, ok := action.Config["due_days"].(float64); ok {
			dueDays = int(v)
		}
		leadID := lead.ID
		_, err := e.store.Tasks.Create(ctx, tx, &leadID, nil, title, e.now().AddDate(0, 0, dueDays), ruleID)
		return err

	case models.ActionUpdateField:
		field, _ := action.Config["field"].(string)
		value := action.Config["value"]
		return e.store.Leads.UpdateField(ctx, tx, lead.ID, field, value)

	case models.ActionRouteToPipeline:
		slug, _ := action.Config["pipeline"].(string)
		if slug == "" {
			return fmt.Errorf("route_to_pipeline: action config missing pipeline slug")
		}
		return e.queue.EnqueueRouting(ctx, models.RoutingJob{LeadID: lead.ID, Trigger: "automation:" + ruleID})

	case models.ActionSyncMoco:
		return e.queue.EnqueueSync(ctx, models.SyncJob{
			Target:  "moco",
			Kind:    "lead_sync",
			Payload: map[string]any{"lead_id": lead.ID, "rule_id": ruleID},
		})

	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// CheckTimeInStage evaluates every active time_in_stage rule against the
// current deal table, firing for any lead that has sat in the configured
// (pipeline, stage) past the configured day threshold. Run periodically
// from cmd/crmcore-decay alongside score/intent expiry, since both are
// calendar-driven sweeps over the whole dataset rather than per-event work.
func (e *Engine) CheckTimeInStage(ctx context.Context) error {
	for _, rule := range e.registry.AutomationRules() {
		if rule.Trigger != models.TriggerTimeInStage {
			continue
		}
		pipelineSlug, _ := rule.TriggerConfig["pipeline"].(string)
		stageSlug, _ := rule.TriggerConfig["stage"].(string)
		days, _ := rule.TriggerConfig["days"].(float64)
		if pipelineSlug == "" || stageSlug == "" || days <= 0 {
			continue
		}
		cutoff := e.now().AddDate(0, 0, -int(days))
		leadIDs, err := e.store.Automation.ListStaleInStage(ctx, pipelineSlug, stageSlug, cutoff)
		if err != nil {
			return fmt.Errorf("list stale for rule %s: %w", rule.ID, err)
		}
		for _, leadID := range leadIDs {
			already, err := e.store.Automation.HasFired(ctx, rule.ID, leadID)
			if err != nil || already {
				continue
			}
			if err := e.fireStandalone(ctx, leadID, rule); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) fireStandalone(ctx context.Context, leadID string, rule *models.AutomationRule) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lead, err := e.store.Leads.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return fmt.Errorf("load lead %s for time_in_stage rule %s: %w", leadID, rule.ID, err)
	}
	if err := e.ExecuteAction(ctx, tx, lead, rule.Action, rule.ID); err != nil {
		return err
	}
	if err := e.store.Automation.MarkFired(ctx, tx, rule.ID, lead.ID, e.now()); err != nil {
		return err
	}
	return tx.Commit()
}
