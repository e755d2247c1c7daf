package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

// ScoringRepository backs the scoring engine's cap checks, score_history
// writes, and the stored recalc primitive invocation.
type ScoringRepository struct {
	db *sql.DB
}

// CountToday returns the count of score_history rows for (lead, rule)
// created within the last 24 hours, for the max_per_day cap.
func (r *ScoringRepository) CountToday(ctx context.Context, leadID, ruleID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM score_history
		WHERE lead_id = $1 AND rule_id = $2 AND created_at > now() - interval '24 hours'
	`, leadID, ruleID).Scan(&n)
	return n, err
}

// CountAllTime returns the all-time count of score_history rows for
// (lead, rule), for the max_per_lead cap.
func (r *ScoringRepository) CountAllTime(ctx context.Context, leadID, ruleID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM score_history WHERE lead_id = $1 AND rule_id = $2
	`, leadID, ruleID).Scan(&n)
	return n, err
}

// InsertHistory appends a score_history row.
func (r *ScoringRepository) InsertHistory(ctx context.Context, tx *sql.Tx, h *models.ScoreHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO score_history (id, lead_id, event_id, rule_id, category, points, new_total, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, h.ID, h.LeadID, h.EventID, h.RuleID, h.Category, h.Points, h.NewTotal, h.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert score_history: %w", err)
	}
	return nil
}

// CategoryTotal sums non-expired points for (lead, category); used to
// compute new_total as a debugging hint before the recalc primitive
// runs. new_total is never read back authoritatively.
func (r *ScoringRepository) CategoryTotal(ctx context.Context, tx *sql.Tx, leadID string, category models.ScoreCategory) (int, error) {
	var total int
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points),0) FROM score_history
		WHERE lead_id = $1 AND category = $2 AND NOT expired
	`, leadID, category).Scan(&total)
	return total, err
}

// Recalc invokes the stored recalc primitive, the sole writer of the
// three category columns and total_score.
func (r *ScoringRepository) Recalc(ctx context.Context, tx *sql.Tx, leadID string) error {
	_, err := tx.ExecContext(ctx, `SELECT recalc_lead_scores($1)`, leadID)
	if err != nil {
		return fmt.Errorf("recalc lead scores: %w", err)
	}
	return nil
}

// ExpireBefore marks every non-expired score_history row whose expires_at
// has passed as expired, returning affected lead ids for recalculation.
// This is the decay job's effect on the history table.
func (r *ScoringRepository) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE score_history SET expired = true, expired_at = $1
		WHERE NOT expired AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING lead_id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("expire score_history: %w", err)
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

// BeginTx starts a transaction on the underlying pool; shared helper used
// by engines that need a single atomic read-modify-write.
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.DB.BeginTx(ctx, nil)
}
