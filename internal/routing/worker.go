// Package routing implements the routing worker state machine: conflict
// detection, pipeline selection, transactional deal creation, and
// first-stage automation.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/codeready-toolchain/crmcore/internal/automation"
	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/models"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

// Notifier is the subset of automation.Notifier routing needs directly,
// for the routing_conflict alert outside the ordinary action-execution path.
type Notifier interface {
	RoutingConflict(ctx context.Context, lead *models.Lead, summary models.IntentSummary) error
}

// Handler processes RoutingJob payloads popped off the routing queue.
type Handler struct {
	store      *store.Client
	registry   *config.Registry
	thresholds config.ThresholdsConfig
	automation *automation.Engine
	notifier   Notifier
	logger     *slog.Logger
}

// NewHandler builds a routing Handler.
func NewHandler(st *store.Client, registry *config.Registry, thresholds config.ThresholdsConfig, auto *automation.Engine, notifier Notifier, logger *slog.Logger) *Handler {
	return &Handler{store: st, registry: registry, thresholds: thresholds, automation: auto, notifier: notifier, logger: logger}
}

// ProcessRouting is the asynq.HandlerFunc registered for queue.TaskRouteLead.
func (h *Handler) ProcessRouting(ctx context.Context, t *asynq.Task) error {
	var job models.RoutingJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("unmarshal routing job: %w", err)
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lead, err := h.store.Leads.GetForUpdate(ctx, tx, job.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %s: %w", job.LeadID, err)
	}

	// Idempotency: a lead that is no longer unrouted has already been
	// handled by an earlier delivery of a routing job.
	if lead.RoutingStatus != models.RoutingUnrouted {
		return tx.Commit()
	}

	top, topVal := lead.IntentSummary.Argmax()
	second := lead.IntentSummary.SecondBest(top)
	conflict := topVal > 0 && (topVal-second) <= h.thresholds.ConflictMargin

	if conflict {
		if err := h.store.Leads.SetRoutingStatus(ctx, tx, lead.ID, models.RoutingManualReview); err != nil {
			return fmt.Errorf("set manual_review: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		if h.notifier != nil {
			if err := h.notifier.RoutingConflict(ctx, lead, lead.IntentSummary); err != nil {
				h.logger.Error("routing conflict notify failed", "lead_id", lead.ID, "error", err)
			}
		}
		return nil
	}

	pipeline, err := h.selectPipeline(ctx, top)
	if err != nil {
		return fmt.Errorf("select pipeline for lead %s: %w", lead.ID, err)
	}
	if len(pipeline.Stages) == 0 {
		return fmt.Errorf("pipeline %s has no stages", pipeline.Slug)
	}
	firstStage := pipeline.Stages[0]

	exists, err := h.store.Deals.ExistsForLeadPipeline(ctx, tx, lead.ID, pipeline.ID)
	if err != nil {
		return fmt.Errorf("check existing deal: %w", err)
	}
	if !exists {
		position, err := h.store.Deals.NextPosition(ctx, tx, firstStage.ID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		deal := &models.Deal{LeadID: lead.ID, PipelineID: pipeline.ID, StageID: firstStage.ID, Position: position}
		if err := h.store.Deals.Create(ctx, tx, deal); err != nil {
			return fmt.Errorf("create deal: %w", err)
		}
	}

	if err := h.store.Leads.Route(ctx, tx, lead.ID, pipeline.ID); err != nil {
		return fmt.Errorf("route lead: %w", err)
	}

	for _, entry := range firstStage.AutomationConfig {
		if err := h.automation.ExecuteAction(ctx, tx, lead, entry.Action, "stage:"+firstStage.Slug); err != nil {
			return fmt.Errorf("execute stage automation: %w", err)
		}
	}

	return tx.Commit()
}

// selectPipeline maps a primary intent to its configured pipeline slug,
// falling back to the default pipeline when there is no primary intent
// yet or no mapping exists for it. Pipelines are loaded from the
// database, not the registry's config snapshot, since deal/stage rows
// need stable ids.
func (h *Handler) selectPipeline(ctx context.Context, primary models.Intent) (*models.Pipeline, error) {
	slug, ok := "", false
	if primary != "" {
		slug, ok = h.registry.IntentPipelineSlug(primary)
	}
	if !ok {
		var err error
		slug, err = h.registry.DefaultPipelineSlug()
		if err != nil {
			return nil, err
		}
	}
	return h.store.Pipelines.GetBySlug(ctx, slug)
}
