package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// PipelineRepository reads the static pipeline/stage configuration that
// was seeded from internal/config into the database. The config.Registry
// stays the live in-process source of truth for matching; these rows
// exist so that routing can attach a deal to a real pipeline/stage id.
type PipelineRepository struct {
	db *sql.DB
}

// GetBySlug loads a pipeline and its ordered stages by slug.
func (r *PipelineRepository) GetBySlug(ctx context.Context, slug string) (*models.Pipeline, error) {
	var p models.Pipeline
	err := r.db.QueryRowContext(ctx, `SELECT id, slug, name, is_default FROM pipelines WHERE slug = $1`, slug).
		Scan(&p.ID, &p.Slug, &p.Name, &p.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slug, name, position, stage_type, automation_config FROM pipeline_stages
		WHERE pipeline_id = $1 ORDER BY position ASC
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list pipeline stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s models.PipelineStage
		var stageType sql.NullString
		var rawConfig []byte
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name, &s.Position, &stageType, &rawConfig); err != nil {
			return nil, err
		}
		s.PipelineID = p.ID
		s.StageType = stageType.String
		if len(rawConfig) > 0 {
			if err := json.Unmarshal(rawConfig, &s.AutomationConfig); err != nil {
				return nil, fmt.Errorf("decode automation_config for stage %s: %w", s.ID, err)
			}
		}
		p.Stages = append(p.Stages, s)
	}
	return &p, rows.Err()
}
