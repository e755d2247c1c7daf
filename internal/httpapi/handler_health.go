package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleHealth reports database reachability and pool stats, plus whether a
// queue broker DSN is configured (the broker itself is not contacted),
// aggregated into a single pool-health response.
func (s *Server) handleHealth(c *gin.Context) {
	dbHealth := s.store.CheckHealth(c.Request.Context())

	status := "ok"
	httpStatus := http.StatusOK
	if !dbHealth.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status: status,
		Database: map[string]any{
			"reachable":  dbHealth.Reachable,
			"error":      dbHealth.Error,
			"open_conns": dbHealth.OpenConns,
			"in_use":     dbHealth.InUse,
			"idle":       dbHealth.Idle,
		},
		Queue: map[string]any{
			"broker_dsn_configured": s.cfg.Queue.BrokerDSN != "",
		},
		CheckedAt: time.Now(),
	})
}
