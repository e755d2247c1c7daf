// Package intent implements the intent detector: a table of
// {event_type, metadata predicate} -> {intent, confidence_points} rules
// loaded from the intent_rules configuration (no rules are built into the
// code, and scoring rules are never read), an append-only signal
// ledger, and the argmax-with-tie-break that produces a lead's
// primary_intent.
package intent

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/models"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

// Engine detects intent signals for one event and recomputes the owning
// lead's intent summary.
type Engine struct {
	store      *store.Client
	registry   *config.Registry
	thresholds config.ThresholdsConfig
	now        func() time.Time
}

// NewEngine builds an Engine reading its fixed rule table from registry.
func NewEngine(st *store.Client, registry *config.Registry, thresholds config.ThresholdsConfig) *Engine {
	return &Engine{store: st, registry: registry, thresholds: thresholds, now: time.Now}
}

// Result is the detector's effect on a lead after processing one event.
type Result struct {
	Summary    models.IntentSummary
	Primary    *models.Intent
	Confidence int
	Conflict   bool
	Routable   bool
}

// Detect matches the fixed intent-rule table against event, appends any
// resulting signals, recomputes the lead's summary and primary intent,
// and reports whether the result is routable or in conflict against the
// configured conflict margin.
func (e *Engine) Detect(ctx context.Context, tx *sql.Tx, lead *models.Lead, event *models.MarketingEvent) (Result, error) {
	matchedAny := false
	for _, rule := range e.registry.IntentRules() {
		if !matchIntentRule(rule, event.EventType, event.Metadata) {
			continue
		}
		eventID := event.ID
		signal := &models.IntentSignal{
			LeadID:           lead.ID,
			Intent:           rule.Intent,
			RuleID:           rule.RuleID,
			ConfidencePoints: rule.ConfidencePoints,
			TriggerType:      "event",
			EventID:          &eventID,
			DetectedAt:       e.now(),
		}
		if err := e.store.Intent.Insert(ctx, tx, signal); err != nil {
			return Result{}, fmt.Errorf("insert intent signal for rule %s: %w", rule.RuleID, err)
		}
		matchedAny = true
	}
	if !matchedAny {
		return Result{}, nil
	}

	summary, err := e.store.Intent.Summary(ctx, lead.ID)
	if err != nil {
		return Result{}, fmt.Errorf("summarize intent for lead %s: %w", lead.ID, err)
	}

	top, topVal := summary.Argmax()
	var primary *models.Intent
	if top != "" {
		t := top
		primary = &t
	}

	if err := e.store.Leads.UpdateIntent(ctx, tx, lead.ID, summary, primary, topVal); err != nil {
		return Result{}, fmt.Errorf("persist intent for lead %s: %w", lead.ID, err)
	}

	second := summary.SecondBest(top)
	conflict := topVal > 0 && (topVal-second) <= e.thresholds.ConflictMargin
	routable := topVal >= e.thresholds.RouteMinIntent && !conflict

	return Result{Summary: summary, Primary: primary, Confidence: topVal, Conflict: conflict, Routable: routable}, nil
}

// RecalcSummary recomputes and persists a lead's cached intent summary,
// primary intent, and confidence from its current non-expired signals,
// without inserting a new one. Used by the decay sweep after intent
// signal expiry changes which signals count toward the summary.
func (e *Engine) RecalcSummary(ctx context.Context, tx *sql.Tx, leadID string) error {
	summary, err := e.store.Intent.Summary(ctx, leadID)
	if err != nil {
		return fmt.Errorf("summarize intent for lead %s: %w", leadID, err)
	}
	top, topVal := summary.Argmax()
	var primary *models.Intent
	if top != "" {
		t := top
		primary = &t
	}
	if err := e.store.Leads.UpdateIntent(ctx, tx, leadID, summary, primary, topVal); err != nil {
		return fmt.Errorf("persist intent for lead %s: %w", leadID, err)
	}
	return nil
}

func matchIntentRule(rule *models.IntentRule, eventType string, metadata map[string]any) bool {
	if rule.EventType != eventType {
		return false
	}
	for key, want := range rule.Metadata {
		got, ok := metadata[key]
		if !ok || fmt.Sprint(want) != fmt.Sprint(got) {
			return false
		}
	}
	return true
}
