package httpapi

import "github.com/codeready-toolchain/crmcore/internal/models"

// IngestRequest is the bound shape of POST /events/ingest.
type IngestRequest = models.IngestEnvelope

// IngestResponse is returned on both 202 (newly enqueued) and 200
// (idempotent hit).
type IngestResponse struct {
	EventID string `json:"event_id"`
}
