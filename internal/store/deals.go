package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

// DealRepository persists models.Deal rows. (lead_id, pipeline_id) is
// unique at the database level, and Create relies on ON CONFLICT DO
// NOTHING to make concurrent routing retries a no-op.
type DealRepository struct {
	db *sql.DB
}

// ExistsForLeadPipeline reports whether a deal already links this lead to
// this pipeline.
func (r *DealRepository) ExistsForLeadPipeline(ctx context.Context, tx *sql.Tx, leadID, pipelineID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM deals WHERE lead_id = $1 AND pipeline_id = $2)`, leadID, pipelineID).Scan(&exists)
	return exists, err
}

// NextPosition returns max(position)+1 within a stage.
func (r *DealRepository) NextPosition(ctx context.Context, tx *sql.Tx, stageID string) (int, error) {
	var max sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM deals WHERE stage_id = $1`, stageID).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// Create inserts a Deal in the given stage with status=open, relying on
// the (lead_id, pipeline_id) unique constraint plus ON CONFLICT DO
// NOTHING to absorb a racing retry as a no-op.
func (r *DealRepository) Create(ctx context.Context, tx *sql.Tx, d *models.Deal) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deals (id, lead_id, pipeline_id, stage_id, position, status, assigned_to)
		VALUES ($1,$2,$3,$4,$5,'open',$6)
		ON CONFLICT (lead_id, pipeline_id) DO NOTHING
	`, d.ID, d.LeadID, d.PipelineID, d.StageID, d.Position, nullStr(d.AssignedTo))
	if err != nil {
		return fmt.Errorf("insert deal: %w", err)
	}
	return nil
}
