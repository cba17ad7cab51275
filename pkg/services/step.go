package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stack360co/automatisch/pkg/app"
	"github.com/stack360co/automatisch/pkg/config"
	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
	"github.com/stack360co/automatisch/pkg/telemetry"
)

// StepExecutor is the single-step execution service. It loads the step,
// resolves its command, runs it and writes the execution step record.
type StepExecutor interface {
	Execute(ctx context.Context, stepID string) (*models.ExecutionStep, error)
}

// Step provides step configuration, resolution and execution operations.
type Step struct {
	persistence persistence.Persistence
	registry    *app.Registry
	config      *config.Config
	notifier    *telemetry.Notifier
	executor    StepExecutor
}

// NewStep creates a new step service. The notifier and executor may be nil
// in contexts that only read.
func NewStep(
	persistence persistence.Persistence,
	registry *app.Registry,
	cfg *config.Config,
	notifier *telemetry.Notifier,
	executor StepExecutor,
) *Step {
	return &Step{
		persistence: persistence,
		registry:    registry,
		config:      cfg,
		notifier:    notifier,
		executor:    executor,
	}
}

// CreateStepRequest contains the fields for inserting a step into a flow.
// The step's type is not a caller choice: position 1 is the trigger slot,
// everything after it holds actions.
type CreateStepRequest struct {
	FlowID   string
	Position int
}

// CreateStep inserts a step at the requested position, shifting later
// siblings up by one. The resulting step list is validated against the
// ordering invariants before anything is written.
func (s *Step) CreateStep(ctx context.Context, req CreateStepRequest) (*models.Step, error) {
	flow, err := s.persistence.Flows().GetByID(ctx, req.FlowID)
	if err != nil {
		return nil, err
	}

	if req.Position < 1 || req.Position > len(flow.Steps)+1 {
		return nil, fmt.Errorf("position %d outside 1..%d: %w", req.Position, len(flow.Steps)+1, ErrInvalidPosition)
	}

	stepType := models.StepTypeAction
	if req.Position == 1 {
		stepType = models.StepTypeTrigger
	}

	step := &models.Step{
		FlowID:   req.FlowID,
		Type:     stepType,
		Position: req.Position,
		Status:   models.StepStatusIncomplete,
	}

	if err := validateProspectiveInsert(flow, step); err != nil {
		return nil, err
	}

	if err := s.persistence.Steps().CreateAt(ctx, step); err != nil {
		return nil, err
	}

	s.notifier.StepCreated(ctx, step)

	return step, nil
}

// validateProspectiveInsert simulates the insert and checks the invariants
// so violations are rejected before commit, not detected after.
func validateProspectiveInsert(flow *models.Flow, step *models.Step) error {
	prospective := &models.Flow{ID: flow.ID}

	for _, sibling := range flow.Steps {
		copied := *sibling
		if copied.Position >= step.Position {
			copied.Position++
		}

		prospective.Steps = append(prospective.Steps, &copied)
	}

	prospective.Steps = append(prospective.Steps, step)

	return prospective.ValidateSteps()
}

// GetStep returns the step by ID.
func (s *Step) GetStep(ctx context.Context, id string) (*models.Step, error) {
	return s.persistence.Steps().GetByID(ctx, id)
}

// UpdateStepRequest contains the configurable step fields. Nil fields are
// left untouched.
type UpdateStepRequest struct {
	AppKey       *string
	Key          *string
	ConnectionID *string
	Parameters   map[string]any
}

// UpdateStep applies user configuration to a step. When the step resolves
// to a command, the parameter bag is validated against that command's setup
// fields; an unresolved binding is a normal transient state and skips
// validation.
func (s *Step) UpdateStep(ctx context.Context, id string, req UpdateStepRequest) (*models.Step, error) {
	step, err := s.persistence.Steps().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AppKey != nil {
		step.AppKey = req.AppKey
	}

	if req.Key != nil {
		step.Key = req.Key
	}

	if req.ConnectionID != nil {
		step.ConnectionID = req.ConnectionID
	}

	if req.Parameters != nil {
		step.Parameters = req.Parameters
	}

	if cmd := s.registry.ResolveStepCommand(step); cmd != nil && req.Parameters != nil {
		if err := app.ValidateParameters(cmd, step.Parameters); err != nil {
			return nil, err
		}
	}

	if err := s.persistence.Steps().Update(ctx, step); err != nil {
		return nil, err
	}

	s.notifier.StepUpdated(ctx, step)

	return step, nil
}

// DeleteStep removes the step, cascades its execution steps and closes the
// position gap, all inside the repository's transaction. Deleting the
// trigger step is structurally permitted; the flow simply fails activation
// until a new trigger exists.
func (s *Step) DeleteStep(ctx context.Context, id string) error {
	return s.persistence.Steps().Delete(ctx, id)
}

// GetApp resolves the step's app, or nil when the step is not bound yet.
func (s *Step) GetApp(step *models.Step) *app.App {
	return s.registry.FindAppByKey(step.AppKeyValue())
}

// GetTriggerCommand resolves the step's trigger command. Returns nil for
// action steps and for unresolved bindings.
func (s *Step) GetTriggerCommand(step *models.Step) app.Command {
	if !step.IsTrigger() {
		return nil
	}

	return s.registry.ResolveCommand(step.AppKeyValue(), app.CommandTypeTrigger, step.KeyValue())
}

// GetActionCommand resolves the step's action command. Returns nil for
// trigger steps and for unresolved bindings.
func (s *Step) GetActionCommand(step *models.Step) app.Command {
	if !step.IsAction() {
		return nil
	}

	return s.registry.ResolveCommand(step.AppKeyValue(), app.CommandTypeAction, step.KeyValue())
}

// GetSetupFields returns the setup fields of the step's resolved command,
// or an empty slice when the step does not resolve. No execution occurs.
func (s *Step) GetSetupFields(step *models.Step) []app.SetupField {
	cmd := s.registry.ResolveStepCommand(step)
	if cmd == nil {
		return []app.SetupField{}
	}

	return cmd.SetupFields()
}

// WebhookURL derives the step's webhook URL from the configured base and
// the persisted path. Pure: returns nil when no path is assigned yet.
func (s *Step) WebhookURL(step *models.Step) *string {
	if step.WebhookPath == nil {
		return nil
	}

	url := s.config.WebhookBaseURL + *step.WebhookPath

	return &url
}

// ComputeWebhookPath returns the step's webhook path, deriving and
// persisting a new opaque one on first use. Idempotent: an assigned path
// is returned unchanged, never regenerated.
func (s *Step) ComputeWebhookPath(ctx context.Context, step *models.Step) (string, error) {
	if step.WebhookPath != nil {
		return *step.WebhookPath, nil
	}

	path := "/webhooks/" + uuid.New().String()
	step.WebhookPath = &path

	if err := s.persistence.Steps().Update(ctx, step); err != nil {
		return "", fmt.Errorf("failed to persist webhook path: %w", err)
	}

	return path, nil
}

// GetWebhookURL returns the full webhook URL for trigger steps, assigning
// the path lazily. Action steps yield nil without error: webhooks are a
// trigger-only concept and callers treat nil as "not applicable".
func (s *Step) GetWebhookURL(ctx context.Context, step *models.Step) (*string, error) {
	if !step.IsTrigger() {
		return nil, nil
	}

	path, err := s.ComputeWebhookPath(ctx, step)
	if err != nil {
		return nil, err
	}

	url := s.config.WebhookBaseURL + path

	return &url, nil
}

// GetNextStep returns the sibling at position+1, or nil.
func (s *Step) GetNextStep(ctx context.Context, step *models.Step) (*models.Step, error) {
	siblings, err := s.persistence.Steps().ListByFlow(ctx, step.FlowID)
	if err != nil {
		return nil, err
	}

	for _, sibling := range siblings {
		if sibling.Position == step.Position+1 {
			return sibling, nil
		}
	}

	return nil, nil
}

// GetLastExecutionStep returns the newest execution record for the step,
// or nil when the step has never executed.
func (s *Step) GetLastExecutionStep(ctx context.Context, step *models.Step) (*models.ExecutionStep, error) {
	executionStep, err := s.persistence.Executions().LastExecutionStepByStepID(ctx, step.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrExecutionStepNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return executionStep, nil
}

// Test executes exactly one step in isolation through the execution
// service. On success the step becomes completed; completion is sticky, so
// re-testing a completed step just re-confirms it. On failure the status
// is untouched and the failure propagates after being recorded for audit.
// This is not a dry run: the command may call real third-party services.
func (s *Step) Test(ctx context.Context, stepID string) (*models.Step, error) {
	step, err := s.persistence.Steps().GetByID(ctx, stepID)
	if err != nil {
		return nil, err
	}

	if _, err := s.executor.Execute(ctx, stepID); err != nil {
		return nil, err
	}

	step.Status = models.StepStatusCompleted

	if err := s.persistence.Steps().Update(ctx, step); err != nil {
		return nil, err
	}

	return step, nil
}
