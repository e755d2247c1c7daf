package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/codeready-toolchain/crmcore/internal/config"
	"github.com/codeready-toolchain/crmcore/internal/models"
)

// Client enqueues jobs onto the three named queues. It is a thin wrapper
// over asynq.Client: callers never see asynq types directly.
type Client struct {
	inner *asynq.Client
	cfg   config.QueueConfig
}

// NewClient dials the Redis broker identified by cfg.BrokerDSN.
func NewClient(cfg config.QueueConfig) (*Client, error) {
	opt, err := asynq.ParseRedisURI(cfg.BrokerDSN)
	if err != nil {
		return nil, fmt.Errorf("parse broker dsn: %w", err)
	}
	return &Client{inner: asynq.NewClient(opt), cfg: cfg}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error { return c.inner.Close() }

// EnqueueEvent enqueues an EventJob on the events queue.
func (c *Client) EnqueueEvent(ctx context.Context, job models.EventJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal event job: %w", err)
	}
	task := asynq.NewTask(TaskProcessEvent, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.Queue(QueueEvents),
		asynq.TaskID(job.EventID),
		asynq.MaxRetry(c.cfg.Events.Retry.MaxAttempts),
		asynq.Timeout(c.cfg.Events.Timeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue event job: %w", err)
	}
	return nil
}

// EnqueueRouting enqueues a RoutingJob with a per-lead dedup key shaped
// "routing-{lead_id}-{ms}". The millisecond suffix keeps retries of a
// single logical decision distinct while asynq.Unique still collapses
// bursts within the TTL window into one in-flight job.
func (c *Client) EnqueueRouting(ctx context.Context, job models.RoutingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal routing job: %w", err)
	}
	taskID := fmt.Sprintf("routing-%s-%d", job.LeadID, time.Now().UnixMilli())
	task := asynq.NewTask(TaskRouteLead, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.Queue(QueueRouting),
		asynq.TaskID(taskID),
		asynq.Unique(30*time.Second),
		asynq.MaxRetry(c.cfg.Routing.Retry.MaxAttempts),
		asynq.Timeout(c.cfg.Routing.Timeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue routing job: %w", err)
	}
	return nil
}

// EnqueueSync enqueues a SyncJob for an out-of-process external
// collaborator (e.g. Moco ERP sync).
func (c *Client) EnqueueSync(ctx context.Context, job models.SyncJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal sync job: %w", err)
	}
	task := asynq.NewTask(TaskSync, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.Queue(QueueSync),
		asynq.MaxRetry(c.cfg.Sync.Retry.MaxAttempts),
		asynq.Timeout(c.cfg.Sync.Timeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue sync job: %w", err)
	}
	return nil
}
