package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// EventRepository persists models.MarketingEvent rows.
type EventRepository struct {
	db *sql.DB
}

// FindByCorrelation implements the idempotent-ingest lookup: if a
// correlation_id is present and a MarketingEvent with the same
// (source, correlation_id) already exists, its row is returned.
func (r *EventRepository) FindByCorrelation(ctx context.Context, source, correlationID string) (*models.MarketingEvent, error) {
	if correlationID == "" {
		return nil, apperrors.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, event_type, source, occurred_at, processed_at
		FROM events WHERE source = $1 AND correlation_id = $2
	`, source, correlationID)
	var e models.MarketingEvent
	var leadID sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(&e.ID, &leadID, &e.EventType, &e.Source, &e.OccurredAt, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event by correlation: %w", err)
	}
	e.LeadID = leadID.String
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	return &e, nil
}

// InsertPreliminary writes the ingest-time row: processed_at = null, empty
// score columns. lead_id is left null: identity resolution happens in
// the event worker, not the ingest endpoint, which fills it in later
// during event persistence.
func (r *EventRepository) InsertPreliminary(ctx context.Context, e *models.MarketingEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (id, lead_id, event_type, source, occurred_at, metadata, correlation_id)
		VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,NULLIF($7,''))
		ON CONFLICT (id, occurred_at) DO NOTHING
	`, e.ID, e.LeadID, e.EventType, e.Source, e.OccurredAt, meta, e.CorrelationID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID loads an event row by id.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.MarketingEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, event_type, event_category, source, occurred_at, metadata,
		       campaign_id, utm_source, utm_medium, utm_campaign, correlation_id,
		       score_points, score_category, processed_at, created_at
		FROM events WHERE id = $1
	`, id)
	return scanEvent(row)
}

func scanEvent(row rowScanner) (*models.MarketingEvent, error) {
	var e models.MarketingEvent
	var leadID, eventCategory, campaignID, utmSource, utmMedium, utmCampaign, correlationID, scoreCategory sql.NullString
	var processedAt sql.NullTime
	var meta []byte

	err := row.Scan(&e.ID, &leadID, &e.EventType, &eventCategory, &e.Source, &e.OccurredAt, &meta,
		&campaignID, &utmSource, &utmMedium, &utmCampaign, &correlationID,
		&e.ScorePoints, &scoreCategory, &processedAt, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	_ = json.Unmarshal(meta, &e.Metadata)
	e.LeadID = leadID.String
	e.EventCategory, e.CampaignID = eventCategory.String, campaignID.String
	e.UTMSource, e.UTMMedium, e.UTMCampaign = utmSource.String, utmMedium.String, utmCampaign.String
	e.CorrelationID, e.ScoreCategory = correlationID.String, scoreCategory.String
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	return &e, nil
}

// UpsertFull writes (or overwrites, idempotently keyed by id) the full
// event row with promoted columns stripped out of metadata.
func (r *EventRepository) UpsertFull(ctx context.Context, tx *sql.Tx, e *models.MarketingEvent) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (
			id, lead_id, event_type, event_category, source, occurred_at, metadata,
			campaign_id, utm_source, utm_medium, utm_campaign, correlation_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12,''))
		ON CONFLICT (id, occurred_at) DO UPDATE SET
			lead_id = EXCLUDED.lead_id,
			event_category = EXCLUDED.event_category,
			metadata = EXCLUDED.metadata,
			campaign_id = EXCLUDED.campaign_id,
			utm_source = EXCLUDED.utm_source,
			utm_medium = EXCLUDED.utm_medium,
			utm_campaign = EXCLUDED.utm_campaign
	`, e.ID, e.LeadID, e.EventType, nullStr(e.EventCategory), e.Source, e.OccurredAt, meta,
		nullStr(e.CampaignID), nullStr(e.UTMSource), nullStr(e.UTMMedium), nullStr(e.UTMCampaign), e.CorrelationID)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// MarkProcessed sets processed_at = now().
func (r *EventRepository) MarkProcessed(ctx context.Context, tx *sql.Tx, eventID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE events SET processed_at = $2 WHERE id = $1`, eventID, at)
	return err
}

// SetFirstScore adds points to score_points on every call, and sets
// score_category only when it is still unset, so the first matched rule's
// category sticks. Runs inside the caller's tx since the event row may
// already be locked by an earlier step.
func (r *EventRepository) SetFirstScore(ctx context.Context, tx *sql.Tx, eventID string, points int, category models.ScoreCategory) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE events SET score_points = score_points + $2,
		       score_category = COALESCE(score_category, $3)
		WHERE id = $1
	`, eventID, points, category)
	return err
}
