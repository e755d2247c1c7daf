package config

import (
	"time"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

// Defaults returns the built-in configuration merged under any
// user-supplied config directory (teacher pattern: pkg/config/builtin.go
// ships conservative defaults that user YAML overrides field-by-field).
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "crmcore",
			Database:        "crmcore",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 15 * time.Minute,
		},
		Queue: QueueConfig{
			BrokerDSN: "redis://localhost:6379/0",
			Events: QueueWorkerConfig{
				Concurrency: 10,
				RateLimit:   RateLimit{Max: 50, Duration: time.Second},
				Retry:       RetryPolicy{MaxAttempts: 5, BackoffBase: time.Second, BackoffCap: 5 * time.Minute},
				Timeout:     60 * time.Second,
			},
			Routing: QueueWorkerConfig{
				Concurrency: 3,
				RateLimit:   RateLimit{Max: 20, Duration: time.Second},
				Retry:       RetryPolicy{MaxAttempts: 5, BackoffBase: time.Second, BackoffCap: 5 * time.Minute},
				Timeout:     120 * time.Second,
			},
			Sync: QueueWorkerConfig{
				Concurrency: 5,
				RateLimit:   RateLimit{Max: 10, Duration: time.Second},
				Retry:       RetryPolicy{MaxAttempts: 3, BackoffBase: time.Second, BackoffCap: time.Minute},
				Timeout:     30 * time.Second,
			},
			ShutdownGrace: 30 * time.Second,
		},
		Thresholds: ThresholdsConfig{
			RouteMinScore:   40,
			RouteMinIntent:  60,
			ConflictMargin:  10,
			TierWarm:        25,
			TierHot:         50,
			TierVeryHot:     75,
			ClockSkewPast:   7 * 24 * time.Hour,
			ClockSkewFuture: time.Hour,
		},
		IntentPipelineMap: map[models.Intent]string{
			models.IntentResearch:   "research-lab",
			models.IntentB2B:        "b2b-lab-enablement",
			models.IntentCoCreation: "panel-co-creation",
		},
	}
}
