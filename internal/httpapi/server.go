// Package httpapi is the gin-based HTTP ingestion surface: POST
// /events/ingest and GET /healthz.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/queue"
	"github.com/codeready-toolchain/crmcore/internal/store"
)

// Server owns the gin engine and its dependencies.
type Server struct {
	engine *gin.Engine
	store  *store.Client
	queue  *queue.Client
	cfg    *config.Config
	logger *slog.Logger
	http   *http.Server
}

// NewServer wires routes against the given store/queue/config and returns
// a Server ready to Run.
func NewServer(addr string, st *store.Client, qc *queue.Client, cfg *config.Config, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{engine: engine, store: st, queue: qc, cfg: cfg, logger: logger}

	engine.Use(recovery(logger), requestLogger(logger))

	engine.GET("/healthz", s.handleHealth)

	ingest := engine.Group("/events")
	ingest.Use(limitBody(), authMiddleware(cfg.Auth))
	ingest.POST("/ingest", s.handleIngest)

	s.http = &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	return s
}

// Run blocks serving HTTP until the listener errors.
func (s *Server) Run() error {
	s.logger.Info("http_server_starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
