package store

import (
	"context"
	"time"
)

// Health reports the liveness of the database pool, mirroring the
// teacher's pkg/database/health.go shape used by the /healthz endpoint.
type Health struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
	OpenConns int    `json:"open_conns"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
}

// CheckHealth pings the pool with a short timeout and reports pool stats.
func (c *Client) CheckHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	h := Health{}
	if err := c.DB.PingContext(ctx); err != nil {
		h.Error = err.Error()
		return h
	}
	h.Reachable = true

	stats := c.DB.Stats()
	h.OpenConns = stats.OpenConnections
	h.InUse = stats.InUse
	h.Idle = stats.Idle
	return h
}
