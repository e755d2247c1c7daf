package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AutomationRepository backs the automation engine's once-per-lead firing
// gate and the admin-visible execution counters on automation_rules.
type AutomationRepository struct {
	db *sql.DB
}

// HasFired reports whether ruleID has already executed for leadID.
func (r *AutomationRepository) HasFired(ctx context.Context, ruleID, leadID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM automation_executions WHERE rule_id = $1 AND lead_id = $2)
	`, ruleID, leadID).Scan(&exists)
	return exists, err
}

// MarkFired records the once-per-lead execution and bumps the rule's
// admin-visible execution_count/last_executed counters. Safe to call
// racily: ON CONFLICT DO NOTHING keeps a double-fire from double-counting.
func (r *AutomationRepository) MarkFired(ctx context.Context, tx *sql.Tx, ruleID, leadID string, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO automation_executions (rule_id, lead_id, executed_at) VALUES ($1,$2,$3)
		ON CONFLICT (rule_id, lead_id) DO NOTHING
	`, ruleID, leadID, at)
	if err != nil {
		return fmt.Errorf("mark automation fired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE automation_rules SET execution_count = execution_count + 1, last_executed = $2 WHERE id = $1
	`, ruleID, at)
	return err
}

// ListStaleInStage returns the lead ids of open deals that entered
// (pipelineSlug, stageSlug) at or before the cutoff, for the time_in_stage
// trigger.
func (r *AutomationRepository) ListStaleInStage(ctx context.Context, pipelineSlug, stageSlug string, before time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.lead_id FROM deals d
		JOIN pipelines p ON p.id = d.pipeline_id
		JOIN pipeline_stages s ON s.id = d.stage_id
		WHERE p.slug = $1 AND s.slug = $2 AND d.stage_entered_at <= $3 AND d.status = 'open'
	`, pipelineSlug, stageSlug, before)
	if err != nil {
		return nil, fmt.Errorf("list stale deals: %w", err)
	}
	defer rows.Close()

	var leadIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		leadIDs = append(leadIDs, id)
	}
	return leadIDs, rows.Err()
}
