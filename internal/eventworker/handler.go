// Package eventworker implements the event-processing worker: identity
// resolution, organization linking, event persistence, attribution,
// scoring, intent detection, automation, and a possible routing hand-off
// for one ingested event.
package eventworker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/codeready-toolchain/crmcore/internal/automation"
	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/intent"
	"github.com/codeready-toolchain/crmcore/internal/models"
	"github.com/codeready-toolchain/crmcore/internal/queue"
	"github.com/codeready-toolchain/crmcore/internal/scoring"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

// Handler processes EventJob payloads popped off the events queue.
type Handler struct {
	store      *store.Client
	queue      *queue.Client
	registry   *config.Registry
	thresholds config.ThresholdsConfig
	scoring    *scoring.Engine
	intent     *intent.Engine
	automation *automation.Engine
	logger     *slog.Logger
}

// NewHandler wires the three engines against a shared store/queue/registry.
func NewHandler(st *store.Client, qc *queue.Client, registry *config.Registry, thresholds config.ThresholdsConfig, auto *automation.Engine, logger *slog.Logger) *Handler {
	return &Handler{
		store:      st,
		queue:      qc,
		registry:   registry,
		thresholds: thresholds,
		scoring:    scoring.NewEngine(st, registry, thresholds),
		intent:     intent.NewEngine(st, registry, thresholds),
		automation: auto,
		logger:     logger,
	}
}

// ProcessEvent is the asynq.HandlerFunc registered for queue.TaskProcessEvent.
//
// Identity resolution, event persistence, attribution, and the
// processed-mark are required and run in one transaction: either the
// event lands fully and correctly, or the job is retried from scratch.
// Scoring, intent detection, and automation are best-effort: each runs in
// its own transaction, and a failure in one is logged rather than undoing
// the required work or blocking the others.
func (h *Handler) ProcessEvent(ctx context.Context, t *asynq.Task) error {
	var job models.EventJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("unmarshal event job: %w", err)
	}

	lead, org, event, err := h.persistEvent(ctx, job)
	if err != nil {
		return err
	}

	var crossings []models.TierCrossing
	if updated, err := h.withLockedLead(ctx, lead.ID, func(tx *sql.Tx, l *models.Lead) error {
		var err error
		crossings, err = h.scoring.Apply(ctx, tx, l, org, event)
		return err
	}); err != nil {
		h.logger.Error("apply scoring failed", "lead_id", lead.ID, "event_id", event.ID, "error", err)
	} else {
		lead = updated
	}

	var intentResult intent.Result
	if updated, err := h.withLockedLead(ctx, lead.ID, func(tx *sql.Tx, l *models.Lead) error {
		var err error
		intentResult, err = h.intent.Detect(ctx, tx, l, event)
		return err
	}); err != nil {
		h.logger.Error("detect intent failed", "lead_id", lead.ID, "event_id", event.ID, "error", err)
	} else {
		lead = updated
	}

	// Automation: event trigger, then one score_threshold trigger per tier
	// crossing, then intent_detected if a primary intent resulted.
	if _, err := h.withLockedLead(ctx, lead.ID, func(tx *sql.Tx, l *models.Lead) error {
		if _, err := h.automation.FireContext(ctx, tx, l, automation.TriggerContext{EventType: event.EventType, Metadata: event.Metadata}); err != nil {
			return fmt.Errorf("fire event automation: %w", err)
		}
		for _, c := range crossings {
			if _, err := h.automation.FireContext(ctx, tx, l, automation.TriggerContext{Tier: c.NewTier}); err != nil {
				return fmt.Errorf("fire tier automation: %w", err)
			}
		}
		if intentResult.Primary != nil {
			if _, err := h.automation.FireContext(ctx, tx, l, automation.TriggerContext{Intent: *intentResult.Primary}); err != nil {
				return fmt.Errorf("fire intent automation: %w", err)
			}
		}
		return nil
	}); err != nil {
		h.logger.Error("fire automation failed", "lead_id", lead.ID, "event_id", event.ID, "error", err)
	}

	// Routing hand-off: enqueue only once per crossing into routable
	// territory; the routing worker re-checks and no-ops if the lead is
	// already routed. lead reflects the post-scoring, post-intent state,
	// so a lead that crosses the threshold on this very event is caught.
	if lead.RoutingStatus == models.RoutingUnrouted {
		routable := lead.TotalOf() >= h.thresholds.RouteMinScore || intentResult.Routable
		if routable {
			if err := h.queue.EnqueueRouting(ctx, models.RoutingJob{LeadID: lead.ID, Trigger: event.EventType}); err != nil {
				h.logger.Error("enqueue routing failed", "lead_id", lead.ID, "error", err)
			}
		}
	}

	return nil
}

// persistEvent resolves identity and organization, writes the event row,
// updates attribution and activity, and marks the event processed, all in
// one transaction.
func (h *Handler) persistEvent(ctx context.Context, job models.EventJob) (*models.Lead, *models.Organization, *models.MarketingEvent, error) {
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Identity resolution — find or create the lead, coalescing any
	// newly-supplied identifier/profile fields without overwriting.
	lead, err := h.store.Leads.FindByIdentifier(ctx, job.LeadIdentifier)
	if err != nil {
		lead = &models.Lead{
			Email:              job.LeadIdentifier.Email,
			Status:             models.LeadStatusNew,
			LifecycleStage:     models.LifecycleLead,
			RoutingStatus:      models.RoutingUnrouted,
			FirstTouchSource:   job.Source,
			FirstTouchCampaign: stringMeta(job.Metadata, "utm_campaign"),
			FirstTouchAt:       &job.OccurredAt,
		}
		lead.ExternalIDs = models.ExternalIDs{
			PortalID: job.LeadIdentifier.PortalID, LinkedInURL: job.LeadIdentifier.LinkedInURL,
			WaalaxyID: job.LeadIdentifier.WaalaxyID, LemlistID: job.LeadIdentifier.LemlistID,
		}
		if err := h.store.Leads.Create(ctx, lead); err != nil {
			return nil, nil, nil, fmt.Errorf("create lead: %w", err)
		}
	} else {
		profile := store.ProfileFields{
			FirstName: stringMeta(job.Metadata, "first_name"),
			LastName:  stringMeta(job.Metadata, "last_name"),
			Phone:     stringMeta(job.Metadata, "phone"),
			JobTitle:  stringMeta(job.Metadata, "job_title"),
		}
		if err := h.store.Leads.CoalesceUpdate(ctx, tx, lead.ID, job.LeadIdentifier, profile); err != nil {
			return nil, nil, nil, fmt.Errorf("coalesce lead: %w", err)
		}
	}

	// Re-read under a row lock so the rest of this transaction's writes
	// serialize against any other in-flight job for the same lead.
	lead, err = h.store.Leads.GetForUpdate(ctx, tx, lead.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("lock lead: %w", err)
	}

	// Organization resolution when the event metadata carries company info:
	// find-or-create by company_domain (or, when only company_name is given,
	// by the lead's email domain) and link it to the lead.
	var org *models.Organization
	if lead.OrganizationID == nil {
		companyName := stringMeta(job.Metadata, "company_name")
		domain := strings.ToLower(stringMeta(job.Metadata, "company_domain"))
		if domain == "" && companyName != "" {
			domain = emailDomain(lead.Email)
		}
		if companyName == "" {
			companyName = domain
		}
		if domain != "" {
			org, err = h.store.Organizations.FindOrCreateByDomain(ctx, domain, companyName)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("resolve organization: %w", err)
			}
			if err := h.store.Leads.LinkOrganization(ctx, tx, lead.ID, org.ID); err != nil {
				return nil, nil, nil, fmt.Errorf("link organization: %w", err)
			}
			lead.OrganizationID = &org.ID
		}
	} else {
		org, err = h.store.Organizations.GetByID(ctx, *lead.OrganizationID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load organization: %w", err)
		}
	}

	// Persist the full event row against the resolved lead.
	event := &models.MarketingEvent{
		ID:         job.EventID,
		LeadID:     lead.ID,
		EventType:  job.EventType,
		Source:     job.Source,
		OccurredAt: job.OccurredAt,
		Metadata:   job.Metadata,
	}
	if err := h.store.Events.UpsertFull(ctx, tx, event); err != nil {
		return nil, nil, nil, fmt.Errorf("persist event: %w", err)
	}

	// Attribution — last-touch always, first-touch only if unset.
	if err := h.store.Leads.UpdateAttribution(ctx, tx, lead.ID, job.Source, stringMeta(job.Metadata, "utm_campaign"), job.OccurredAt); err != nil {
		return nil, nil, nil, fmt.Errorf("update attribution: %w", err)
	}

	// Activity touch.
	if err := h.store.Leads.TouchActivity(ctx, tx, lead.ID, job.OccurredAt); err != nil {
		return nil, nil, nil, fmt.Errorf("touch activity: %w", err)
	}

	// Mark the event processed before the best-effort scoring/intent/
	// automation steps run, so a downstream failure there can't undo the
	// processed-mark and break idempotent retry.
	if err := h.store.Events.MarkProcessed(ctx, tx, event.ID, time.Now()); err != nil {
		return nil, nil, nil, fmt.Errorf("mark processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, fmt.Errorf("commit event processing: %w", err)
	}
	return lead, org, event, nil
}

// withLockedLead runs fn inside a fresh transaction against leadID locked
// with SELECT ... FOR UPDATE, committing on success. It returns the
// (possibly fn-mutated) lead so callers can chain best-effort steps
// without holding one long-lived transaction across all of them.
func (h *Handler) withLockedLead(ctx context.Context, leadID string, fn func(tx *sql.Tx, lead *models.Lead) error) (*models.Lead, error) {
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lead, err := h.store.Leads.GetForUpdate(ctx, tx, leadID)
	if err != nil {
		return nil, fmt.Errorf("lock lead: %w", err)
	}
	if err := fn(tx, lead); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return lead, nil
}

func emailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

func stringMeta(meta map[string]any, key string) string {
	v, _ := meta[key].(string)
	return v
}
