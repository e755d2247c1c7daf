package config

import (
	"time"

	"github.com/codeready-toolchain/crmcore/internal/models"
)

// Config is the umbrella configuration object loaded at process start and
// held immutably behind atomic-pointer snapshots.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Queue      QueueConfig      `yaml:"queue"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Auth       AuthConfig       `yaml:"auth"`
	Slack      SlackConfig      `yaml:"slack"`

	ScoringRules    []ScoringRuleConfig    `yaml:"scoring_rules" validate:"dive"`
	IntentRules     []IntentRuleConfig     `yaml:"intent_rules" validate:"dive"`
	Pipelines       []PipelineConfig       `yaml:"pipelines" validate:"dive"`
	AutomationRules []AutomationRuleConfig `yaml:"automation_rules" validate:"dive"`

	// IntentPipelineMap maps a primary intent to a pipeline slug, overridable
	// per intent.
	IntentPipelineMap map[models.Intent]string `yaml:"intent_pipeline_map"`
}

// DatabaseConfig is an env-var-driven DB config shape.
type DatabaseConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"required"`
	User            string        `yaml:"user" validate:"required"`
	Password        string        `yaml:"password" validate:"required"`
	Database        string        `yaml:"database" validate:"required"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RetryPolicy is the exponential-backoff retry contract shared by every queue.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"min=1"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`
}

// RateLimit is a token-bucket-style per-worker rate limit.
type RateLimit struct {
	Max      int           `yaml:"max" validate:"min=1"`
	Duration time.Duration `yaml:"duration"`
}

// QueueWorkerConfig holds one queue's (events/routing/sync) concurrency,
// rate limit, retry policy, and per-job wall-clock timeout.
type QueueWorkerConfig struct {
	Concurrency int           `yaml:"concurrency" validate:"min=1"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
	Retry       RetryPolicy   `yaml:"retry"`
	Timeout     time.Duration `yaml:"timeout"`
}

// QueueConfig is the broker DSN plus per-queue settings.
type QueueConfig struct {
	BrokerDSN       string            `yaml:"broker_dsn" validate:"required"`
	Events          QueueWorkerConfig `yaml:"events"`
	Routing         QueueWorkerConfig `yaml:"routing"`
	Sync            QueueWorkerConfig `yaml:"sync"`
	ShutdownGrace   time.Duration     `yaml:"shutdown_grace"`
}

// ThresholdsConfig holds the numeric cutoffs driving routing and tier
// notifications.
type ThresholdsConfig struct {
	RouteMinScore  int `yaml:"route_min_score"`
	RouteMinIntent int `yaml:"route_min_intent"`
	ConflictMargin int `yaml:"conflict_margin"`

	TierWarm    int `yaml:"tier_warm"`
	TierHot     int `yaml:"tier_hot"`
	TierVeryHot int `yaml:"tier_very_hot"`

	// ClockSkewPast/Future bound occurred_at acceptance.
	ClockSkewPast   time.Duration `yaml:"clock_skew_past"`
	ClockSkewFuture time.Duration `yaml:"clock_skew_future"`
}

// AuthConfig holds the per-source API keys and HMAC secrets used by the
// ingest endpoint.
type AuthConfig struct {
	// APIKeys maps a source name to its opaque API key.
	APIKeys map[string]string `yaml:"api_keys"`
	// HMACSecrets maps a source name to its shared HMAC secret.
	HMACSecrets map[string]string `yaml:"hmac_secrets"`
}

// SlackConfig configures the automation engine's send_notification and
// routing_conflict Slack delivery.
type SlackConfig struct {
	Token        string `yaml:"token"`
	Channel      string `yaml:"channel"`
	DashboardURL string `yaml:"dashboard_url"`
}

// ScoringRuleConfig is the YAML shape of a models.ScoringRule.
type ScoringRuleConfig struct {
	ID         string                   `yaml:"id" validate:"required"`
	Slug       string                   `yaml:"slug" validate:"required"`
	Category   models.ScoreCategory     `yaml:"category" validate:"required,oneof=demographic engagement behavior"`
	RuleType   models.RuleType          `yaml:"rule_type" validate:"required,oneof=event field"`
	Event      *models.EventConditions  `yaml:"event,omitempty"`
	Fields     []models.FieldCondition  `yaml:"fields,omitempty"`
	Points     int                      `yaml:"points"`
	MaxPerDay  *int                     `yaml:"max_per_day,omitempty"`
	MaxPerLead *int                     `yaml:"max_per_lead,omitempty"`
	DecayDays  *int                     `yaml:"decay_days,omitempty"`
	IsActive   bool                     `yaml:"is_active"`
	Priority   int                      `yaml:"priority"`
}

// IntentRuleConfig is the YAML shape of a models.IntentRule.
type IntentRuleConfig struct {
	RuleID           string         `yaml:"rule_id" validate:"required"`
	EventType        string         `yaml:"event_type" validate:"required"`
	Metadata         map[string]any `yaml:"metadata,omitempty"`
	Intent           models.Intent  `yaml:"intent" validate:"required,oneof=research b2b co_creation"`
	ConfidencePoints int            `yaml:"confidence_points" validate:"min=1"`
}

// PipelineStageConfig is the YAML shape of a models.PipelineStage.
type PipelineStageConfig struct {
	Slug             string                          `yaml:"slug" validate:"required"`
	Name             string                           `yaml:"name"`
	Position         int                              `yaml:"position"`
	StageType        string                           `yaml:"stage_type"`
	AutomationConfig []StageAutomationEntryConfig     `yaml:"automation_config,omitempty"`
}

// StageAutomationEntryConfig is one {trigger, action} pair in YAML.
type StageAutomationEntryConfig struct {
	Trigger models.TriggerType      `yaml:"trigger"`
	Action  AutomationActionConfig `yaml:"action"`
}

// AutomationActionConfig is the YAML shape of a models.AutomationAction.
type AutomationActionConfig struct {
	Type   models.ActionType `yaml:"type" validate:"required"`
	Config map[string]any    `yaml:"config,omitempty"`
}

// PipelineConfig is the YAML shape of a models.Pipeline.
type PipelineConfig struct {
	Slug      string                `yaml:"slug" validate:"required"`
	Name      string                `yaml:"name"`
	IsDefault bool                  `yaml:"is_default"`
	Stages    []PipelineStageConfig `yaml:"stages" validate:"required,min=1,dive"`
}

// AutomationRuleConfig is the YAML shape of a models.AutomationRule.
type AutomationRuleConfig struct {
	ID            string                 `yaml:"id" validate:"required"`
	Trigger       models.TriggerType     `yaml:"trigger" validate:"required"`
	TriggerConfig map[string]any         `yaml:"trigger_config,omitempty"`
	Action        AutomationActionConfig `yaml:"action"`
	Priority      int                    `yaml:"priority"`
	IsActive      bool                   `yaml:"is_active"`
}
