package models

import "time"

// StepType distinguishes the event source at position 1 from the actions
// that follow it.
type StepType string

const (
	StepTypeTrigger StepType = "trigger"
	StepTypeAction  StepType = "action"
)

// StepStatus tracks whether a step has been configured and verified by a
// successful test run.
type StepStatus string

const (
	StepStatusIncomplete StepStatus = "incomplete"
	StepStatusCompleted  StepStatus = "completed"
)

// Step is one stage of a flow. It binds to an app and one of that app's
// commands by key; both stay empty until the user configures the step, which
// is a normal transient state, not an error.
type Step struct {
	ID           string         `json:"id"`
	FlowID       string         `json:"flow_id"       validate:"required"`
	Type         StepType       `json:"type"          validate:"required,oneof=trigger action"`
	Position     int            `json:"position"      validate:"required,min=1"`
	AppKey       *string        `json:"app_key,omitempty"`
	Key          *string        `json:"key,omitempty"`
	ConnectionID *string        `json:"connection_id,omitempty"`
	Parameters   map[string]any `json:"parameters"`
	WebhookPath  *string        `json:"webhook_path,omitempty"`
	Status       StepStatus     `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (s *Step) IsTrigger() bool {
	return s.Type == StepTypeTrigger
}

func (s *Step) IsAction() bool {
	return s.Type == StepTypeAction
}

// AppKeyValue returns the bound app key or "" when the step is unconfigured.
func (s *Step) AppKeyValue() string {
	if s.AppKey == nil {
		return ""
	}

	return *s.AppKey
}

// KeyValue returns the bound command key or "" when the step is unconfigured.
func (s *Step) KeyValue() string {
	if s.Key == nil {
		return ""
	}

	return *s.Key
}
