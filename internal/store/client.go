// Package store is the direct database/sql + pgx persistence layer:
// hand-written SQL against *sql.DB and *sql.Tx, one repository type per
// aggregate, rather than a generated ORM client.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Client wraps a *sql.DB configured per Config and exposes the per-entity
// repositories as fields.
type Client struct {
	DB *sql.DB

	Leads           *LeadRepository
	Organizations   *OrganizationRepository
	Events          *EventRepository
	Scoring         *ScoringRepository
	Intent          *IntentRepository
	Pipelines       *PipelineRepository
	Deals           *DealRepository
	Tasks           *TaskRepository
	Automation      *AutomationRepository
}

// NewClient opens the pool and wires up every repository against it.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := &Client{DB: db}
	c.Leads = &LeadRepository{db: db}
	c.Organizations = &OrganizationRepository{db: db}
	c.Events = &EventRepository{db: db}
	c.Scoring = &ScoringRepository{db: db}
	c.Intent = &IntentRepository{db: db}
	c.Pipelines = &PipelineRepository{db: db}
	c.Deals = &DealRepository{db: db}
	c.Tasks = &TaskRepository{db: db}
	c.Automation = &AutomationRepository{db: db}
	return c, nil
}

// Close closes the underlying pool.
func (c *Client) Close() error { return c.DB.Close() }
