// Package queue wraps hibiken/asynq to provide three durable job queues:
// events, routing, sync. Health aggregation and graceful shutdown follow
// the same PoolHealth/WorkerHealth shape used elsewhere in this codebase,
// with actual polling, retry, and delay delegated to asynq/Redis.
package queue

import (
	"errors"
	"time"
)

// Queue names, the external contract between workers and the broker.
const (
	QueueEvents  = "events"
	QueueRouting = "routing"
	QueueSync    = "sync"
)

// Task type names registered with asynq.
const (
	TaskProcessEvent = "event:process"
	TaskRouteLead    = "routing:route"
	TaskSync         = "sync:deliver"
)

// Sentinel errors for queue operations.
var (
	ErrNotConnected = errors.New("queue: not connected to broker")
)

// Health reports aggregate queue health.
type Health struct {
	IsHealthy      bool           `json:"is_healthy"`
	BrokerReachable bool          `json:"broker_reachable"`
	BrokerError    string         `json:"broker_error,omitempty"`
	QueueDepths    map[string]int `json:"queue_depths"`
	CheckedAt      time.Time      `json:"checked_at"`
}
