package models

import "time"

// IntentRule is one intent-rule entry: {event_type, optional metadata
// predicate} -> {intent, confidence_points, rule_id}. Entries come from the
// intent_rules configuration; none are built into the code. The intent
// detector does not read scoring rules.
type IntentRule struct {
	RuleID            string
	EventType         string
	Metadata          map[string]any
	Intent            Intent
	ConfidencePoints  int
}

// IntentSignal is an append-only record of one matched intent rule for a
// lead; it is never updated, only expired by the decay job.
type IntentSignal struct {
	ID               string
	LeadID           string
	Intent           Intent
	RuleID           string
	ConfidencePoints int
	TriggerType      string
	EventID          *string
	DetectedAt       time.Time
	ExpiresAt        *time.Time
	Expired          bool
	ExpiredAt        *time.Time
}
