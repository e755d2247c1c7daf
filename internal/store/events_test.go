package store

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// newTestClient starts a disposable Postgres container, applies every
// embedded migration, and returns a connected Client. Mirrors the
// teacher's pkg/database/client_test.go container-per-test setup.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("crmcore_test"),
		postgres.WithUsername("crmcore"),
		postgres.WithPassword("crmcore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := Config{
		Host: host, Port: portNum, User: "crmcore", Password: "crmcore",
		Database: "crmcore_test", SSLMode: "disable",
		MaxOpenConns: 10, MaxIdleConns: 5,
	}

	require.NoError(t, Migrate(cfg))

	client, err := NewClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestInsertPreliminaryIsIdempotentOnIDAndOccurredAt(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	event := &models.MarketingEvent{
		ID:         "11111111-1111-1111-1111-111111111111",
		EventType:  "pricing_page_view",
		Source:     "website",
		OccurredAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Metadata:   map[string]any{"page": "/pricing"},
	}

	require.NoError(t, client.Events.InsertPreliminary(ctx, event))
	require.NoError(t, client.Events.InsertPreliminary(ctx, event))

	got, err := client.Events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "pricing_page_view", got.EventType)
	assert.Equal(t, "", got.LeadID, "lead_id is left null until the worker resolves identity")
}

func TestInsertPreliminaryLeavesLeadIDNull(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	event := &models.MarketingEvent{
		ID:         "22222222-2222-2222-2222-222222222222",
		EventType:  "demo_requested",
		Source:     "webinar",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, client.Events.InsertPreliminary(ctx, event))

	var leadID *string
	err := client.DB.QueryRowContext(ctx, `SELECT lead_id FROM events WHERE id = $1`, event.ID).Scan(&leadID)
	require.NoError(t, err)
	assert.Nil(t, leadID)
}

func TestFindByCorrelationIsScopedToCorrelationID(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	event := &models.MarketingEvent{
		ID:            "33333333-3333-3333-3333-333333333333",
		EventType:     "form_submit",
		Source:        "hubspot",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: "hubspot-evt-42",
	}
	require.NoError(t, client.Events.InsertPreliminary(ctx, event))

	found, err := client.Events.FindByCorrelation(ctx, "hubspot", "hubspot-evt-42")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, event.ID, found.ID)

	_, err = client.Events.FindByCorrelation(ctx, "hubspot", "no-such-correlation")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
