// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrStepNotFound indicates a step was not found by the given identifier
	// or webhook path.
	ErrStepNotFound = errors.New("step not found")

	// ErrExecutionNotFound indicates an execution was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionStepNotFound indicates a step has no execution record yet.
	ErrExecutionStepNotFound = errors.New("execution step not found")

	// ErrConnectionNotFound indicates a connection was not found.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrConcurrentFlowEdit indicates two structural edits raced on the same
	// flow. The caller may retry the operation.
	ErrConcurrentFlowEdit = errors.New("concurrent structural edit on flow")
)

// FlowError wraps flow-related errors with operation context.
type FlowError struct {
	Op     string
	FlowID string
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{Op: op, FlowID: flowID, Err: err}
}

// StepError wraps step-related errors with operation context.
type StepError struct {
	Op     string
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s operation failed for step %s: %v", e.Op, e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a new step error with context.
func NewStepError(op, stepID string, err error) *StepError {
	return &StepError{Op: op, StepID: stepID, Err: err}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsConcurrentFlowEdit checks if an error indicates a retryable edit race.
func IsConcurrentFlowEdit(err error) bool {
	return errors.Is(err, ErrConcurrentFlowEdit)
}
