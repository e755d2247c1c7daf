package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// OrganizationRepository persists models.Organization rows.
type OrganizationRepository struct {
	db *sql.DB
}

// FindByDomain looks up an organization by domain.
func (r *OrganizationRepository) FindByDomain(ctx context.Context, domain string) (*models.Organization, error) {
	var o models.Organization
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, domain, industry, size, country, created_at, updated_at
		FROM organizations WHERE domain = $1
	`, domain).Scan(&o.ID, &o.Name, &o.Domain, &o.Industry, &o.Size, &o.Country, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &o, nil
}

// GetByID loads an organization by primary key.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var o models.Organization
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, domain, industry, size, country, created_at, updated_at
		FROM organizations WHERE id = $1
	`, id).Scan(&o.ID, &o.Name, &o.Domain, &o.Industry, &o.Size, &o.Country, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// FindOrCreateByDomain implements the find-or-create semantics of spec
// §4.2 step 2, using ON CONFLICT to make concurrent creates idempotent.
func (r *OrganizationRepository) FindOrCreateByDomain(ctx context.Context, domain, name string) (*models.Organization, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, domain) VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO NOTHING
	`, id, name, domain)
	if err != nil {
		return nil, fmt.Errorf("upsert organization: %w", err)
	}
	return r.FindByDomain(ctx, domain)
}
