package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

// Flow provides flow lifecycle operations.
type Flow struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

// NewFlow creates a new flow service.
func NewFlow(persistence persistence.Persistence) *Flow {
	return &Flow{
		persistence: persistence,
		validator:   validator.New(),
	}
}

// CreateFlowRequest contains the fields for creating a flow.
type CreateFlowRequest struct {
	Name string `validate:"required,min=3"`
}

// Create persists a new inactive flow seeded with an unconfigured trigger
// step at position 1, the shape the editor expects to start from.
func (s *Flow) Create(ctx context.Context, req CreateFlowRequest) (*models.Flow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlowNameRequired, err)
	}

	flow := &models.Flow{
		Name:   req.Name,
		Active: false,
	}

	if err := s.persistence.Flows().Create(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	trigger := &models.Step{
		FlowID:   flow.ID,
		Type:     models.StepTypeTrigger,
		Position: 1,
		Status:   models.StepStatusIncomplete,
	}

	if err := s.persistence.Steps().CreateAt(ctx, trigger); err != nil {
		return nil, fmt.Errorf("failed to create trigger step: %w", err)
	}

	flow.Steps = []*models.Step{trigger}

	return flow, nil
}

// GetByID returns the flow with its steps in position order.
func (s *Flow) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	return s.persistence.Flows().GetByID(ctx, id)
}

// List returns all flows.
func (s *Flow) List(ctx context.Context) ([]*models.Flow, error) {
	return s.persistence.Flows().List(ctx)
}

// UpdateFlowRequest contains the mutable flow fields. Nil fields are left
// untouched.
type UpdateFlowRequest struct {
	Name   *string
	Active *bool
}

// Update renames or (de)activates a flow. Activation requires the ordering
// invariants to hold and every step to be configured and verified.
func (s *Flow) Update(ctx context.Context, id string, req UpdateFlowRequest) (*models.Flow, error) {
	flow, err := s.persistence.Flows().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if len(*req.Name) < 3 {
			return nil, ErrFlowNameRequired
		}

		flow.Name = *req.Name
	}

	if req.Active != nil {
		if *req.Active && !flow.Active {
			if err := s.validateReady(flow); err != nil {
				return nil, err
			}
		}

		flow.Active = *req.Active
	}

	if err := s.persistence.Flows().Update(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// Delete removes the flow; steps and execution steps cascade with it.
func (s *Flow) Delete(ctx context.Context, id string) error {
	return s.persistence.Flows().Delete(ctx, id)
}

// HealthCheck checks the health of the persistence layer.
func (s *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (s *Flow) validateReady(flow *models.Flow) error {
	if err := flow.ValidateSteps(); err != nil {
		return err
	}

	if flow.TriggerStep() == nil {
		return ErrFlowNotReady
	}

	for _, step := range flow.Steps {
		if step.Status != models.StepStatusCompleted {
			return fmt.Errorf("step at position %d is not completed: %w", step.Position, ErrFlowNotReady)
		}
	}

	return nil
}
