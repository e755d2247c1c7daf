package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskRepository persists Task rows created by automation's create_task action.
type TaskRepository struct {
	db *sql.DB
}

// Create inserts a task with due_date = now + due_days, linked to
// lead/deal, with automation_rule_id set, the create_task action's effect.
// The row FK-references the lead, so this runs inside the caller's tx.
func (r *TaskRepository) Create(ctx context.Context, tx *sql.Tx, leadID, dealID *string, title string, dueDate time.Time, automationRuleID string) (string, error) {
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, lead_id, deal_id, title, due_date, status, automation_rule_id)
		VALUES ($1,$2,$3,$4,$5,'open',$6)
	`, id, leadID, dealID, title, dueDate, automationRuleID)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}
