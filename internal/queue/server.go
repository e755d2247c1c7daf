package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	"github.com/codeready-toolchain/crmcore/internal/config"
)

// Server runs one or more asynq queue consumers in a single process,
// with a Run/Shutdown lifecycle that delegates claim/poll/retry to asynq.
type Server struct {
	inner   *asynq.Server
	mux     *asynq.ServeMux
	cfg     config.QueueConfig
	limiters map[string]*rate.Limiter
	logger  *slog.Logger
}

// NewServer builds a Server configured for the given queue set and
// per-queue concurrency, the way asynq.Config.Queues assigns relative
// weights. The routing queue typically runs with lower concurrency than
// events.
func NewServer(cfg config.QueueConfig, queues map[string]int) (*Server, error) {
	opt, err := asynq.ParseRedisURI(cfg.BrokerDSN)
	if err != nil {
		return nil, fmt.Errorf("parse broker dsn: %w", err)
	}

	totalConcurrency := cfg.Events.Concurrency + cfg.Routing.Concurrency + cfg.Sync.Concurrency

	inner := asynq.NewServer(opt, asynq.Config{
		Concurrency: totalConcurrency,
		Queues:      queues,
		ShutdownTimeout: cfg.ShutdownGrace,
	})

	s := &Server{
		inner:  inner,
		mux:    asynq.NewServeMux(),
		cfg:    cfg,
		logger: slog.Default().With("component", "queue-server"),
		limiters: map[string]*rate.Limiter{
			QueueEvents:  rate.NewLimiter(rate.Every(cfg.Events.RateLimit.Duration/time.Duration(max1(cfg.Events.RateLimit.Max))), cfg.Events.RateLimit.Max),
			QueueRouting: rate.NewLimiter(rate.Every(cfg.Routing.RateLimit.Duration/time.Duration(max1(cfg.Routing.RateLimit.Max))), cfg.Routing.RateLimit.Max),
			QueueSync:    rate.NewLimiter(rate.Every(cfg.Sync.RateLimit.Duration/time.Duration(max1(cfg.Sync.RateLimit.Max))), cfg.Sync.RateLimit.Max),
		},
	}
	return s, nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// HandleFunc registers a handler for a task type, wrapping it with the
// queue's token-bucket rate limiter.
func (s *Server) HandleFunc(taskType, queueName string, fn func(context.Context, *asynq.Task) error) {
	limiter := s.limiters[queueName]
	s.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}
		return fn(ctx, t)
	})
}

// Run starts consuming and blocks until the process receives a termination
// signal or Shutdown is called, then drains in-flight jobs up to the
// shutdown grace period before forcing exit.
func (s *Server) Run() error {
	return s.inner.Run(s.mux)
}

// Shutdown gracefully stops the server, draining in-flight jobs.
func (s *Server) Shutdown() {
	s.inner.Shutdown()
}
