package models

import "time"

// ScoreCategory is one of the three additive score dimensions.
type ScoreCategory string

const (
	CategoryDemographic ScoreCategory = "demographic"
	CategoryEngagement  ScoreCategory = "engagement"
	CategoryBehavior    ScoreCategory = "behavior"
)

// RuleType distinguishes event-triggered rules from lead/organization
// field-triggered rules.
type RuleType string

const (
	RuleTypeEvent RuleType = "event"
	RuleTypeField RuleType = "field"
)

// FieldOperator is the closed set of comparison operators field rules use.
type FieldOperator string

const (
	OpEquals   FieldOperator = "equals"
	OpIn       FieldOperator = "in"
	OpContains FieldOperator = "contains"
	OpPattern  FieldOperator = "pattern"
	OpGTE      FieldOperator = "gte"
	OpLTE      FieldOperator = "lte"
)

// NumericComparison is the {lt|lte|gt|gte: number} shape a metadata
// condition value may take instead of a scalar equality check.
type NumericComparison struct {
	LT  *float64 `yaml:"lt,omitempty" json:"lt,omitempty"`
	LTE *float64 `yaml:"lte,omitempty" json:"lte,omitempty"`
	GT  *float64 `yaml:"gt,omitempty" json:"gt,omitempty"`
	GTE *float64 `yaml:"gte,omitempty" json:"gte,omitempty"`
}

// EventConditions is the rule_type=event predicate: an event_type match
// plus an optional set of metadata key predicates.
type EventConditions struct {
	EventType string         `yaml:"event_type" json:"event_type"`
	Metadata  map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// FieldCondition is a single rule_type=field predicate against a lead
// (optionally joined organization) field.
type FieldCondition struct {
	Field    string        `yaml:"field" json:"field"`
	Operator FieldOperator `yaml:"operator" json:"operator"`
	Value    any           `yaml:"value" json:"value"`
}

// ScoringRule is static configuration, mutated only by admins outside the
// core; the core reads a snapshot at worker startup and reloads on SIGHUP.
type ScoringRule struct {
	ID         string
	Slug       string
	Category   ScoreCategory
	RuleType   RuleType
	Event      *EventConditions
	Fields     []FieldCondition
	Points     int
	MaxPerDay  *int
	MaxPerLead *int
	DecayDays  *int
	IsActive   bool
	Priority   int
	CreatedAt  time.Time
}

// ScoreHistory is an append-only ledger of every successful rule
// application; decay marks rows expired without deleting them.
type ScoreHistory struct {
	ID         string
	LeadID     string
	EventID    *string
	RuleID     string
	Category   ScoreCategory
	Points     int
	NewTotal   int // debugging hint only, never read back authoritatively
	ExpiresAt  *time.Time
	Expired    bool
	ExpiredAt  *time.Time
	CreatedAt  time.Time
}

// TierCrossing describes a WARM/HOT/VERY_HOT threshold crossing produced
// by the scoring engine for the automation engine to consume.
type TierCrossing struct {
	LeadID   string
	OldScore int
	NewScore int
	OldTier  string
	NewTier  string
}
