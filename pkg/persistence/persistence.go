// Package persistence provides the data storage abstraction for flows,
// steps, executions and connections.
package persistence

import (
	"context"
	"fmt"

	"github.com/stack360co/automatisch/pkg/models"
)

// Persistence bundles the repositories of one storage backend.
type Persistence interface {
	Flows() FlowRepository
	Steps() StepRepository
	Executions() ExecutionRepository
	Connections() ConnectionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores flows. Loaded flows carry their steps ordered by
// ascending position.
type FlowRepository interface {
	Create(ctx context.Context, flow *models.Flow) error
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	List(ctx context.Context) ([]*models.Flow, error)
	Update(ctx context.Context, flow *models.Flow) error

	// Delete removes the flow, its steps and their execution steps in one
	// atomic unit.
	Delete(ctx context.Context, id string) error
}

// StepRepository stores steps. Structural mutations (CreateAt, Delete) are
// serialized per flow: each runs in a transaction holding a lock on the
// owning flow so two concurrent edits cannot shift positions from a stale
// snapshot. Lock conflicts surface as ErrConcurrentFlowEdit.
type StepRepository interface {
	// CreateAt inserts the step at step.Position, first shifting every
	// sibling at or above that position up by one.
	CreateAt(ctx context.Context, step *models.Step) error

	GetByID(ctx context.Context, id string) (*models.Step, error)
	ListByFlow(ctx context.Context, flowID string) ([]*models.Step, error)
	Update(ctx context.Context, step *models.Step) error

	// Delete removes the step and its execution steps, then decrements the
	// position of every higher sibling by exactly one, all in one atomic
	// unit so no position gap can survive a crash.
	Delete(ctx context.Context, id string) error

	FindByWebhookPath(ctx context.Context, path string) (*models.Step, error)
}

// ValidateInsertAt enforces the insert invariants against the flow's
// current step count: the position fits 1..count+1, the trigger slot and
// the step type agree, and position 1 of a non-empty flow is never taken
// (that would shift the existing trigger to position 2). Backends call
// this inside CreateAt while holding the flow lock, so a caller that
// validated against a stale snapshot cannot commit a gap or a second
// trigger.
func ValidateInsertAt(step *models.Step, count int) error {
	if step.Position < 1 || step.Position > count+1 {
		return fmt.Errorf("position %d outside 1..%d: %w", step.Position, count+1, models.ErrInvalidPosition)
	}

	if step.Position == 1 && step.Type != models.StepTypeTrigger {
		return models.ErrTriggerPosition
	}

	if step.Position > 1 && step.Type == models.StepTypeTrigger {
		return models.ErrTriggerPosition
	}

	if step.Position == 1 && count > 0 {
		return models.ErrTriggerPosition
	}

	return nil
}

// ExecutionRepository stores executions and their immutable step records.
type ExecutionRepository interface {
	CreateExecution(ctx context.Context, execution *models.Execution) error
	GetExecution(ctx context.Context, id string) (*models.Execution, error)

	CreateExecutionStep(ctx context.Context, executionStep *models.ExecutionStep) error
	ListExecutionSteps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error)

	// LastExecutionStepByStepID returns the newest execution step for a
	// step, ties broken by highest ID, or ErrExecutionStepNotFound.
	LastExecutionStepByStepID(ctx context.Context, stepID string) (*models.ExecutionStep, error)
}

// ConnectionRepository stores integration credentials.
type ConnectionRepository interface {
	Save(ctx context.Context, connection *models.Connection) error
	GetByID(ctx context.Context, id string) (*models.Connection, error)
	Delete(ctx context.Context, id string) error
}
