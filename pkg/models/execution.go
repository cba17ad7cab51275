package models

import "time"

// Execution represents a single run of a flow. Concurrent runs of the same
// flow are independent; each owns its own execution steps.
type Execution struct {
	ID        string    `json:"id"`
	FlowID    string    `json:"flow_id" validate:"required"`
	TestRun   bool      `json:"test_run"`
	CreatedAt time.Time `json:"created_at"`
}

// ExecutionStepStatus is the terminal outcome of one step execution.
type ExecutionStepStatus string

const (
	ExecutionStepStatusSuccess ExecutionStepStatus = "success"
	ExecutionStepStatusFailure ExecutionStepStatus = "failure"
)

// ExecutionStep is the audit record of one step's execution within one run.
// It is immutable once written: records are only inserted and eventually
// removed by the cascade when their step is deleted.
type ExecutionStep struct {
	ID           string              `json:"id"`
	ExecutionID  string              `json:"execution_id" validate:"required"`
	StepID       string              `json:"step_id"      validate:"required"`
	Status       ExecutionStepStatus `json:"status"       validate:"required,oneof=success failure"`
	DataIn       map[string]any      `json:"data_in"`
	DataOut      map[string]any      `json:"data_out,omitempty"`
	ErrorDetails map[string]any      `json:"error_details,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func (es *ExecutionStep) Succeeded() bool {
	return es.Status == ExecutionStepStatusSuccess
}
