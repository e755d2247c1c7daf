package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// handleIngest implements POST /events/ingest:
//  1. authenticate (handled by authMiddleware upstream)
//  2. validate the envelope and the occurred_at clock-skew bounds
//  3. on a correlation_id hit, return the existing event_id idempotently
//  4. write a preliminary event row (lead_id left null; identity
//     resolution is the event worker's job) and enqueue an EventJob
func (s *Server) handleIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewValidationError("invalid_envelope", "", err.Error()))
		return
	}

	if req.LeadIdentifier.Empty() {
		writeError(c, apperrors.NewValidationError("missing_lead_identifier", "lead_identifier", "at least one identifier field is required"))
		return
	}

	now := time.Now()
	skewPast := s.cfg.Thresholds.ClockSkewPast
	skewFuture := s.cfg.Thresholds.ClockSkewFuture
	if req.OccurredAt.Before(now.Add(-skewPast)) || req.OccurredAt.After(now.Add(skewFuture)) {
		writeError(c, apperrors.NewValidationError("occurred_at_out_of_bounds", "occurred_at", "occurred_at is outside the accepted clock-skew window"))
		return
	}

	ctx := c.Request.Context()

	if req.CorrelationID != "" {
		existing, err := s.store.Events.FindByCorrelation(ctx, req.Source, req.CorrelationID)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, IngestResponse{EventID: existing.ID})
			return
		case errors.Is(err, apperrors.ErrNotFound):
			// fall through to insert a new event
		default:
			writeError(c, err)
			return
		}
	}

	event := &models.MarketingEvent{
		ID:            uuid.NewString(),
		EventType:     req.EventType,
		Source:        req.Source,
		OccurredAt:    req.OccurredAt,
		Metadata:      req.Metadata,
		CorrelationID: req.CorrelationID,
	}
	if err := s.store.Events.InsertPreliminary(ctx, event); err != nil {
		writeError(c, err)
		return
	}

	job := models.EventJob{
		EventID:        event.ID,
		EventType:      event.EventType,
		Source:         event.Source,
		LeadIdentifier: req.LeadIdentifier,
		Metadata:       event.Metadata,
		OccurredAt:     event.OccurredAt,
	}
	if err := s.queue.EnqueueEvent(ctx, job); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, IngestResponse{EventID: event.ID})
}
