package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// LeadRepository persists models.Lead rows directly against *sql.DB,
// using raw SQL inside explicit transactions rather than a generated
// client.
type LeadRepository struct {
	db *sql.DB
}

// FindByIdentifier tries each identifier field in order: email,
// portal_id, waalaxy_id, linkedin_url, lemlist_id.
func (r *LeadRepository) FindByIdentifier(ctx context.Context, id models.LeadIdentifier) (*models.Lead, error) {
	type attempt struct {
		col string
		val string
	}
	attempts := []attempt{
		{"email", normalizeEmail(id.Email)},
		{"portal_id", id.PortalID},
		{"waalaxy_id", id.WaalaxyID},
		{"linkedin_url", id.LinkedInURL},
		{"lemlist_id", id.LemlistID},
	}
	for _, a := range attempts {
		if a.val == "" {
			continue
		}
		lead, err := r.findByColumn(ctx, a.col, a.val)
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *LeadRepository) findByColumn(ctx context.Context, col, val string) (*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s = $1`, leadColumns, col)
	row := r.db.QueryRowContext(ctx, query, val)
	return scanLead(row)
}

// GetByID loads a lead by primary key.
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns)
	return scanLead(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate loads a lead with a row lock ("SELECT ... FOR UPDATE"),
// for read-modify-write sequences. Must run inside tx.
func (r *LeadRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1 FOR UPDATE`, leadColumns)
	return scanLead(tx.QueryRowContext(ctx, query, id))
}

// Create inserts a new Lead with defaulted status/lifecycle/routing_status
// and first-touch attribution set from the triggering event.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, email, portal_id, linkedin_url, waalaxy_id, lemlist_id,
			first_name, last_name, phone, job_title, status, lifecycle_stage,
			routing_status, first_touch_source, first_touch_campaign, first_touch_at,
			last_touch_source, last_touch_campaign, last_touch_at, organization_id, last_activity
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		lead.ID, normalizeEmail(lead.Email), nullStr(lead.ExternalIDs.PortalID), nullStr(lead.ExternalIDs.LinkedInURL),
		nullStr(lead.ExternalIDs.WaalaxyID), nullStr(lead.ExternalIDs.LemlistID),
		nullStr(lead.FirstName), nullStr(lead.LastName), nullStr(lead.Phone), nullStr(lead.JobTitle),
		lead.Status, lead.LifecycleStage, lead.RoutingStatus,
		nullStr(lead.FirstTouchSource), nullStr(lead.FirstTouchCampaign), lead.FirstTouchAt,
		nullStr(lead.LastTouchSource), nullStr(lead.LastTouchCampaign), lead.LastTouchAt,
		nullStr(derefStr(lead.OrganizationID)), lead.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// CoalesceUpdate fills any nullable external ids and nullable profile
// fields from newer data without overwriting existing values.
func (r *LeadRepository) CoalesceUpdate(ctx context.Context, tx *sql.Tx, leadID string, id models.LeadIdentifier, profile ProfileFields) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE leads SET
			portal_id    = COALESCE(portal_id, NULLIF($2,'')),
			linkedin_url = COALESCE(linkedin_url, NULLIF($3,'')),
			waalaxy_id   = COALESCE(waalaxy_id, NULLIF($4,'')),
			lemlist_id   = COALESCE(lemlist_id, NULLIF($5,'')),
			first_name   = COALESCE(first_name, NULLIF($6,'')),
			last_name    = COALESCE(last_name, NULLIF($7,'')),
			phone        = COALESCE(phone, NULLIF($8,'')),
			job_title    = COALESCE(job_title, NULLIF($9,'')),
			updated_at   = now()
		WHERE id = $1
	`, leadID, id.PortalID, id.LinkedInURL, id.WaalaxyID, id.LemlistID,
		profile.FirstName, profile.LastName, profile.Phone, profile.JobTitle)
	if err != nil {
		return fmt.Errorf("coalesce lead: %w", err)
	}
	return nil
}

// ProfileFields are the profile keys that may be promoted from event
// metadata during identity resolution.
type ProfileFields struct {
	FirstName string
	LastName  string
	Phone     string
	JobTitle  string
}

// UpdateAttribution sets last-touch always, and first-touch only if unset.
func (r *LeadRepository) UpdateAttribution(ctx context.Context, tx *sql.Tx, leadID, source, campaign string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE leads SET
			last_touch_source = $2, last_touch_campaign = $3, last_touch_at = $4,
			first_touch_source = COALESCE(first_touch_source, $2),
			first_touch_campaign = COALESCE(first_touch_campaign, $3),
			first_touch_at = COALESCE(first_touch_at, $4),
			updated_at = now()
		WHERE id = $1
	`, leadID, source, campaign, at)
	if err != nil {
		return fmt.Errorf("update attribution: %w", err)
	}
	return nil
}

// TouchActivity sets last_activity = now().
func (r *LeadRepository) TouchActivity(ctx context.Context, tx *sql.Tx, leadID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE leads SET last_activity = $2, updated_at = now() WHERE id = $1`, leadID, at)
	return err
}

// LinkOrganization sets organization_id if currently null.
func (r *LeadRepository) LinkOrganization(ctx context.Context, tx *sql.Tx, leadID, orgID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE leads SET organization_id = COALESCE(organization_id, $2), updated_at = now() WHERE id = $1`, leadID, orgID)
	return err
}

// UpdateIntent persists the intent_summary, primary_intent, and
// intent_confidence columns. Writes the lead row directly, so it runs
// inside the caller's tx to respect any row lock already held on it.
func (r *LeadRepository) UpdateIntent(ctx context.Context, tx *sql.Tx, leadID string, summary models.IntentSummary, primary *models.Intent, confidence int) error {
	var primaryVal any
	if primary != nil {
		primaryVal = string(*primary)
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE leads SET
			intent_research = $2, intent_b2b = $3, intent_co_creation = $4,
			primary_intent = $5, intent_confidence = $6, updated_at = now()
		WHERE id = $1
	`, leadID, summary.Research, summary.B2B, summary.CoCreation, primaryVal, confidence)
	return err
}

// SetRoutingStatus transitions lead.routing_status.
func (r *LeadRepository) SetRoutingStatus(ctx context.Context, tx *sql.Tx, leadID string, status models.RoutingStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE leads SET routing_status = $2, updated_at = now() WHERE id = $1`, leadID, status)
	return err
}

// Route marks a lead routed: sets pipeline_id, routing_status=routed, routed_at=now().
func (r *LeadRepository) Route(ctx context.Context, tx *sql.Tx, leadID, pipelineID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE leads SET pipeline_id = $2, routing_status = 'routed', routed_at = now(), updated_at = now()
		WHERE id = $1
	`, leadID, pipelineID)
	return err
}

// UpdateField updates a single named field, constrained by the caller to
// the action_type=update_field safelist. Runs inside tx since it's always
// invoked against a lead row the calling job holds locked.
func (r *LeadRepository) UpdateField(ctx context.Context, tx *sql.Tx, leadID, field string, value any) error {
	allowed := map[string]bool{
		"status": true, "lifecycle_stage": true, "job_title": true,
		"phone": true, "first_name": true, "last_name": true,
	}
	if !allowed[field] {
		return fmt.Errorf("update_field: %q is not in the safelist", field)
	}
	query := fmt.Sprintf(`UPDATE leads SET %s = $2, updated_at = now() WHERE id = $1`, field)
	_, err := tx.ExecContext(ctx, query, leadID, value)
	return err
}

const leadColumns = `
	id, email, portal_id, linkedin_url, waalaxy_id, lemlist_id,
	first_name, last_name, phone, job_title, status, lifecycle_stage,
	demographic_score, engagement_score, behavior_score, total_score,
	routing_status, pipeline_id, routed_at,
	primary_intent, intent_confidence, intent_research, intent_b2b, intent_co_creation,
	first_touch_source, first_touch_campaign, first_touch_at,
	last_touch_source, last_touch_campaign, last_touch_at,
	organization_id, last_activity, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var l models.Lead
	var portalID, linkedin, waalaxy, lemlist, firstName, lastName, phone, jobTitle sql.NullString
	var pipelineID, orgID sql.NullString
	var routedAt, firstTouchAt, lastTouchAt, lastActivity sql.NullTime
	var primaryIntent sql.NullString
	var firstTouchSource, firstTouchCampaign, lastTouchSource, lastTouchCampaign sql.NullString

	err := row.Scan(
		&l.ID, &l.Email, &portalID, &linkedin, &waalaxy, &lemlist,
		&firstName, &lastName, &phone, &jobTitle, &l.Status, &l.LifecycleStage,
		&l.DemographicScore, &l.EngagementScore, &l.BehaviorScore, &l.TotalScore,
		&l.RoutingStatus, &pipelineID, &routedAt,
		&primaryIntent, &l.IntentConfidence, &l.IntentSummary.Research, &l.IntentSummary.B2B, &l.IntentSummary.CoCreation,
		&firstTouchSource, &firstTouchCampaign, &firstTouchAt,
		&lastTouchSource, &lastTouchCampaign, &lastTouchAt,
		&orgID, &lastActivity, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}

	l.ExternalIDs = models.ExternalIDs{
		PortalID: portalID.String, LinkedInURL: linkedin.String,
		WaalaxyID: waalaxy.String, LemlistID: lemlist.String,
	}
	l.FirstName, l.LastName, l.Phone, l.JobTitle = firstName.String, lastName.String, phone.String, jobTitle.String
	l.FirstTouchSource, l.FirstTouchCampaign = firstTouchSource.String, firstTouchCampaign.String
	l.LastTouchSource, l.LastTouchCampaign = lastTouchSource.String, lastTouchCampaign.String
	if pipelineID.Valid {
		v := pipelineID.String
		l.PipelineID = &v
	}
	if orgID.Valid {
		v := orgID.String
		l.OrganizationID = &v
	}
	if routedAt.Valid {
		l.RoutedAt = &routedAt.Time
	}
	if firstTouchAt.Valid {
		l.FirstTouchAt = &firstTouchAt.Time
	}
	if lastTouchAt.Valid {
		l.LastTouchAt = &lastTouchAt.Time
	}
	if lastActivity.Valid {
		l.LastActivity = &lastActivity.Time
	}
	if primaryIntent.Valid {
		v := models.Intent(primaryIntent.String)
		l.PrimaryIntent = &v
	}
	return &l, nil
}

func normalizeEmail(s string) string {
	return toLower(s)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
