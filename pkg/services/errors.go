// Package services implements the flow and step business operations on top
// of the persistence layer and the app registry.
package services

import (
	"errors"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

// Persistence errors surfaced to callers unchanged.
var (
	ErrFlowNotFound       = persistence.ErrFlowNotFound
	ErrStepNotFound       = persistence.ErrStepNotFound
	ErrConcurrentFlowEdit = persistence.ErrConcurrentFlowEdit
)

// Business logic errors. These indicate caller mistakes, not system faults.
var (
	// ErrInvalidPosition indicates an insertion position outside 1..len+1.
	// Shared with the model layer so the storage backends can surface the
	// same error from their under-lock re-check.
	ErrInvalidPosition = models.ErrInvalidPosition

	// ErrTriggerPosition mirrors the model invariant: triggers live at
	// position 1, actions everywhere else.
	ErrTriggerPosition = models.ErrTriggerPosition

	// ErrFlowNotReady indicates an activation attempt while the flow is
	// missing a trigger or has unfinished steps.
	ErrFlowNotReady = errors.New("flow has no trigger or unfinished steps")

	// ErrFlowNameRequired indicates a flow create/update without a name.
	ErrFlowNameRequired = errors.New("flow name is required")
)

// IsValidationError checks if an error should map to a client error rather
// than a system fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrTriggerPosition) ||
		errors.Is(err, ErrFlowNotReady) ||
		errors.Is(err, ErrFlowNameRequired) ||
		errors.Is(err, models.ErrPositionGap)
}

// IsConflictError checks if an error is a retryable edit race.
func IsConflictError(err error) bool {
	return errors.Is(err, persistence.ErrConcurrentFlowEdit)
}
