package models

// TriggerType enumerates the conditions an AutomationRule may fire on.
type TriggerType string

const (
	TriggerEvent          TriggerType = "event"
	TriggerScoreThreshold TriggerType = "score_threshold"
	TriggerIntentDetected TriggerType = "intent_detected"
	TriggerStageChange    TriggerType = "stage_change"
	TriggerTimeInStage    TriggerType = "time_in_stage"
)

// ActionType is the closed set of automation action kinds.
type ActionType string

const (
	ActionSendNotification ActionType = "send_notification"
	ActionCreateTask       ActionType = "create_task"
	ActionUpdateField      ActionType = "update_field"
	ActionRouteToPipeline  ActionType = "route_to_pipeline"
	ActionSyncMoco         ActionType = "sync_moco"
)

// Pipeline is static configuration: an ordered list of stages a deal moves
// through. Pipelines come from the pipelines section of the configuration;
// the built-in defaults define none.
type Pipeline struct {
	ID        string
	Slug      string
	Name      string
	IsDefault bool
	Stages    []PipelineStage
}

// StageAutomationEntry is one {trigger, action} pair in a stage's ordered
// automation_config list.
type StageAutomationEntry struct {
	Trigger TriggerType      `json:"trigger"`
	Action  AutomationAction `json:"action"`
}

// PipelineStage belongs to exactly one pipeline and carries an ordered
// automation_config fired when a deal enters it.
type PipelineStage struct {
	ID              string
	PipelineID      string
	Slug            string
	Name            string
	Position        int
	StageType       string
	AutomationConfig []StageAutomationEntry
}

// AutomationAction is the {action_type, action_config} pair an
// AutomationRule or stage automation entry carries.
type AutomationAction struct {
	Type   ActionType     `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// AutomationRule is static configuration read at worker startup.
type AutomationRule struct {
	ID             string
	Trigger        TriggerType
	TriggerConfig  map[string]any
	Action         AutomationAction
	Priority       int
	IsActive       bool
	ExecutionCount int
	LastExecuted   *string
}

// Deal is a Lead's representation within one pipeline; at most one per
// (lead_id, pipeline_id), enforced by a unique constraint.
type Deal struct {
	ID             string
	LeadID         string
	PipelineID     string
	StageID        string
	Position       int
	Value          *float64
	Currency       string
	Status         string // open, won, lost
	StageEnteredAt string
	AssignedTo     string
	ClosedAt       *string
}

// Task is created by automation actions (create_task) or manually.
type Task struct {
	ID               string
	LeadID           *string
	DealID           *string
	Title            string
	DueDate          string
	Status           string // open, in_progress, completed, cancelled
	AutomationRuleID *string
}
