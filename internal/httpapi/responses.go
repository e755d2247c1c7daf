package httpapi

import "time"

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string         `json:"status"`
	Database  map[string]any `json:"database"`
	Queue     map[string]any `json:"queue"`
	CheckedAt time.Time      `json:"checked_at"`
}
