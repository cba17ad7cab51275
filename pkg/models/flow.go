// Package models defines the core domain models for flow-based automation.
package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPositionGap indicates step positions are not a contiguous 1..N run.
	ErrPositionGap = errors.New("step positions must be contiguous starting at 1")

	// ErrTriggerPosition indicates a trigger step outside position 1 or an
	// action step at position 1.
	ErrTriggerPosition = errors.New("the step at position 1 must be the only trigger")

	// ErrInvalidPosition indicates an insertion position outside 1..N+1 for
	// the flow's current step count.
	ErrInvalidPosition = errors.New("invalid step position")
)

// Flow represents one automation: an ordered pipeline of steps where the
// first step is a trigger and the rest are actions.
type Flow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"   validate:"required,min=3"`
	Active    bool      `json:"active"`
	Steps     []*Step   `json:"steps,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TriggerStep returns the flow's trigger step, or nil when the flow has none.
func (f *Flow) TriggerStep() *Step {
	for _, step := range f.Steps {
		if step.Type == StepTypeTrigger {
			return step
		}
	}

	return nil
}

// StepAt returns the step at the given 1-based position, or nil.
func (f *Flow) StepAt(position int) *Step {
	for _, step := range f.Steps {
		if step.Position == position {
			return step
		}
	}

	return nil
}

// ValidateSteps checks the ordering invariants: positions form a contiguous
// run 1..len(steps) and exactly one trigger sits at position 1. An empty
// step list is valid.
func (f *Flow) ValidateSteps() error {
	if len(f.Steps) == 0 {
		return nil
	}

	seen := make(map[int]*Step, len(f.Steps))

	for _, step := range f.Steps {
		if _, dup := seen[step.Position]; dup {
			return fmt.Errorf("duplicate position %d: %w", step.Position, ErrPositionGap)
		}

		seen[step.Position] = step
	}

	for position := 1; position <= len(f.Steps); position++ {
		step, ok := seen[position]
		if !ok {
			return fmt.Errorf("missing position %d: %w", position, ErrPositionGap)
		}

		if position == 1 && step.Type != StepTypeTrigger {
			return ErrTriggerPosition
		}

		if position > 1 && step.Type == StepTypeTrigger {
			return ErrTriggerPosition
		}
	}

	return nil
}
