package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

// IntentRepository backs the intent detector's signal ledger and summary
// recomputation.
type IntentRepository struct {
	db *sql.DB
}

// Insert appends an IntentSignal row. Append-only, never updated. Runs
// inside tx: the row FK-references the lead, which the caller usually
// holds locked for the rest of the job.
func (r *IntentRepository) Insert(ctx context.Context, tx *sql.Tx, s *models.IntentSignal) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO intent_signals (id, lead_id, intent, rule_id, confidence_points, trigger_type, event_id, detected_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, s.ID, s.LeadID, s.Intent, s.RuleID, s.ConfidencePoints, s.TriggerType, s.EventID, s.DetectedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert intent_signal: %w", err)
	}
	return nil
}

// Summary recomputes intent_summary by summing confidence_points per
// intent across non-expired signals for the lead.
func (r *IntentRepository) Summary(ctx context.Context, leadID string) (models.IntentSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT intent, COALESCE(SUM(confidence_points),0)
		FROM intent_signals WHERE lead_id = $1 AND NOT expired
		GROUP BY intent
	`, leadID)
	if err != nil {
		return models.IntentSummary{}, fmt.Errorf("summarize intent: %w", err)
	}
	defer rows.Close()

	var s models.IntentSummary
	for rows.Next() {
		var intent string
		var sum int
		if err := rows.Scan(&intent, &sum); err != nil {
			return models.IntentSummary{}, err
		}
		switch models.Intent(intent) {
		case models.IntentResearch:
			s.Research = sum
		case models.IntentB2B:
			s.B2B = sum
		case models.IntentCoCreation:
			s.CoCreation = sum
		}
	}
	return s, rows.Err()
}

// ExpireBefore marks non-expired intent_signals whose expires_at has
// passed as expired, returning affected lead ids.
func (r *IntentRepository) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE intent_signals SET expired = true, expired_at = $1
		WHERE NOT expired AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING lead_id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("expire intent_signals: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	var leadIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			leadIDs = append(leadIDs, id)
		}
	}
	return leadIDs, rows.Err()
}
