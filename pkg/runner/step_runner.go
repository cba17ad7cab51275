// Package runner executes single steps: it resolves the step's command,
// prepares its inputs and writes the immutable execution records.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stack360co/automatisch/pkg/app"
	"github.com/stack360co/automatisch/pkg/config"
	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
	"github.com/stack360co/automatisch/pkg/template"
	"github.com/stack360co/automatisch/pkg/tracing"
)

// ErrStepNotRunnable indicates the step does not resolve to a command, so
// there is nothing to execute yet.
var ErrStepNotRunnable = errors.New("step does not resolve to a runnable command")

// StepRunner executes one step in isolation. Every run, successful or not,
// leaves an execution step record behind before the result is returned.
type StepRunner struct {
	persistence persistence.Persistence
	registry    *app.Registry
	config      *config.Config
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewStepRunner creates a step runner. A nil tracer disables tracing.
func NewStepRunner(
	persistence persistence.Persistence,
	registry *app.Registry,
	cfg *config.Config,
	tracer trace.Tracer,
	logger *slog.Logger,
) *StepRunner {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("runner")
	}

	return &StepRunner{
		persistence: persistence,
		registry:    registry,
		config:      cfg,
		tracer:      tracer,
		logger:      logger,
	}
}

// Execute runs the step once under a fresh test execution. The command may
// call real external services. The execution step record is persisted
// before Execute returns, for failures as well as successes, so the audit
// trail never misses a run.
func (r *StepRunner) Execute(ctx context.Context, stepID string) (*models.ExecutionStep, error) {
	step, err := r.persistence.Steps().GetByID(ctx, stepID)
	if err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "step.execute", trace.WithAttributes(
		attribute.String(tracing.FlowIDKey, step.FlowID),
		attribute.String(tracing.StepIDKey, step.ID),
		attribute.String(tracing.AppKeyKey, step.AppKeyValue()),
		attribute.String(tracing.CommandKeyKey, step.KeyValue()),
	))
	defer span.End()

	cmd := r.registry.ResolveStepCommand(step)
	if cmd == nil {
		err := fmt.Errorf("step %s (app=%q key=%q): %w",
			step.ID, step.AppKeyValue(), step.KeyValue(), ErrStepNotRunnable)
		tracing.SetError(span, err)

		return nil, err
	}

	connection, err := r.loadConnection(ctx, step)
	if err != nil {
		tracing.SetError(span, err)

		return nil, err
	}

	input, err := r.seedInput(ctx, step)
	if err != nil {
		tracing.SetError(span, err)

		return nil, err
	}

	parameters, err := template.RenderParameters(step.Parameters, input)
	if err != nil {
		tracing.SetError(span, err)

		return nil, fmt.Errorf("failed to render parameters: %w", err)
	}

	execution := &models.Execution{
		FlowID:  step.FlowID,
		TestRun: true,
	}

	if err := r.persistence.Executions().CreateExecution(ctx, execution); err != nil {
		tracing.SetError(span, err)

		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	span.SetAttributes(attribute.String(tracing.ExecutionIDKey, execution.ID))

	runCtx := app.RunContext{
		Step:       step,
		Connection: connection,
		Parameters: parameters,
		Input:      input,
		Logger:     r.logger,
	}

	if step.WebhookPath != nil {
		runCtx.WebhookURL = r.config.WebhookBaseURL + *step.WebhookPath
	}

	result, runErr := cmd.Run(ctx, runCtx)

	executionStep := &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      step.ID,
		DataIn:      parameters,
	}

	if runErr != nil {
		executionStep.Status = models.ExecutionStepStatusFailure
		executionStep.ErrorDetails = map[string]any{"error": runErr.Error()}

		tracing.SetError(span, runErr)
	} else {
		executionStep.Status = models.ExecutionStepStatusSuccess
		executionStep.DataOut = result.Data
	}

	if err := r.persistence.Executions().CreateExecutionStep(ctx, executionStep); err != nil {
		tracing.SetError(span, err)

		return nil, fmt.Errorf("failed to record execution step: %w", err)
	}

	if runErr != nil {
		r.logger.ErrorContext(ctx, "Step execution failed",
			"step_id", step.ID,
			"app_key", step.AppKeyValue(),
			"command_key", step.KeyValue(),
			"error", runErr)

		return executionStep, fmt.Errorf("step execution failed: %w", runErr)
	}

	r.logger.InfoContext(ctx, "Step executed",
		"step_id", step.ID,
		"app_key", step.AppKeyValue(),
		"command_key", step.KeyValue(),
		"execution_id", execution.ID)

	return executionStep, nil
}

func (r *StepRunner) loadConnection(ctx context.Context, step *models.Step) (*models.Connection, error) {
	if step.ConnectionID == nil {
		return nil, nil
	}

	connection, err := r.persistence.Connections().GetByID(ctx, *step.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %s: %w", *step.ConnectionID, err)
	}

	return connection, nil
}

// seedInput builds the input for a test run from the latest output of the
// previous sibling, so a step under construction sees realistic upstream
// data. Triggers and steps whose predecessor never ran get an empty input.
func (r *StepRunner) seedInput(ctx context.Context, step *models.Step) (map[string]any, error) {
	if step.Position <= 1 {
		return map[string]any{}, nil
	}

	siblings, err := r.persistence.Steps().ListByFlow(ctx, step.FlowID)
	if err != nil {
		return nil, err
	}

	for _, sibling := range siblings {
		if sibling.Position != step.Position-1 {
			continue
		}

		last, err := r.persistence.Executions().LastExecutionStepByStepID(ctx, sibling.ID)
		if err != nil {
			if errors.Is(err, persistence.ErrExecutionStepNotFound) {
				return map[string]any{}, nil
			}

			return nil, err
		}

		if last.DataOut == nil {
			return map[string]any{}, nil
		}

		return last.DataOut, nil
	}

	return map[string]any{}, nil
}
