package runner

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/app"
	"github.com/stack360co/automatisch/pkg/apps/formatter"
	"github.com/stack360co/automatisch/pkg/apps/webhookapp"
	"github.com/stack360co/automatisch/pkg/config"
	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence/file"
)

type runnerFixture struct {
	store  *file.Persistence
	runner *StepRunner
	flow   *models.Flow
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	registry := app.NewRegistry(slog.Default())
	require.NoError(t, registry.RegisterApp(webhookapp.New()))
	require.NoError(t, registry.RegisterApp(formatter.New()))

	cfg := &config.Config{WebhookBaseURL: "http://localhost:3000"}

	flow := &models.Flow{Name: "Runner fixtures"}
	require.NoError(t, store.Flows().Create(t.Context(), flow))

	return &runnerFixture{
		store:  store,
		runner: NewStepRunner(store, registry, cfg, nil, slog.Default()),
		flow:   flow,
	}
}

func (f *runnerFixture) createStep(
	t *testing.T,
	stepType models.StepType,
	position int,
	appKey, key string,
	parameters map[string]any,
) *models.Step {
	t.Helper()

	step := &models.Step{
		FlowID:     f.flow.ID,
		Type:       stepType,
		Position:   position,
		Parameters: parameters,
	}

	if appKey != "" {
		step.AppKey = &appKey
		step.Key = &key
	}

	require.NoError(t, f.store.Steps().CreateAt(t.Context(), step))

	return step
}

func TestStepRunner_Execute_Success(t *testing.T) {
	f := newRunnerFixture(t)

	f.createStep(t, models.StepTypeTrigger, 1, "", "", nil)
	action := f.createStep(t, models.StepTypeAction, 2, formatter.AppKey, "text", map[string]any{
		"input":     "hello",
		"transform": "uppercase",
	})

	executionStep, err := f.runner.Execute(t.Context(), action.ID)
	require.NoError(t, err)

	assert.True(t, executionStep.Succeeded())
	assert.Equal(t, "HELLO", executionStep.DataOut["output"])
	assert.Equal(t, "hello", executionStep.DataIn["input"])

	// The record is persisted, not just returned.
	last, err := f.store.Executions().LastExecutionStepByStepID(t.Context(), action.ID)
	require.NoError(t, err)
	assert.Equal(t, executionStep.ID, last.ID)

	execution, err := f.store.Executions().GetExecution(t.Context(), executionStep.ExecutionID)
	require.NoError(t, err)
	assert.True(t, execution.TestRun)
	assert.Equal(t, f.flow.ID, execution.FlowID)
}

func TestStepRunner_Execute_FailureIsRecordedAndPropagated(t *testing.T) {
	f := newRunnerFixture(t)

	f.createStep(t, models.StepTypeTrigger, 1, "", "", nil)
	action := f.createStep(t, models.StepTypeAction, 2, formatter.AppKey, "text", map[string]any{
		"input":     "hello",
		"transform": "reverse",
	})

	executionStep, err := f.runner.Execute(t.Context(), action.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, formatter.ErrUnknownTransform)

	require.NotNil(t, executionStep)
	assert.Equal(t, models.ExecutionStepStatusFailure, executionStep.Status)
	assert.Contains(t, executionStep.ErrorDetails["error"], "unknown text transform")

	// The failure survives as an audit record.
	last, err := f.store.Executions().LastExecutionStepByStepID(t.Context(), action.ID)
	require.NoError(t, err)
	assert.False(t, last.Succeeded())
}

func TestStepRunner_Execute_UnresolvedStep(t *testing.T) {
	f := newRunnerFixture(t)

	trigger := f.createStep(t, models.StepTypeTrigger, 1, "", "", nil)

	_, err := f.runner.Execute(t.Context(), trigger.ID)
	assert.ErrorIs(t, err, ErrStepNotRunnable)
}

func TestStepRunner_Execute_SeedsInputFromPreviousSibling(t *testing.T) {
	f := newRunnerFixture(t)

	trigger := f.createStep(t, models.StepTypeTrigger, 1, webhookapp.AppKey, "catchRawWebhook", nil)
	action := f.createStep(t, models.StepTypeAction, 2, formatter.AppKey, "text", map[string]any{
		"input":     "{{.customer}}",
		"transform": "capitalize",
	})

	// A previous run of the trigger left output behind.
	execution := &models.Execution{FlowID: f.flow.ID, TestRun: true}
	require.NoError(t, f.store.Executions().CreateExecution(t.Context(), execution))
	require.NoError(t, f.store.Executions().CreateExecutionStep(t.Context(), &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      trigger.ID,
		Status:      models.ExecutionStepStatusSuccess,
		DataOut:     map[string]any{"customer": "ada lovelace"},
	}))

	executionStep, err := f.runner.Execute(t.Context(), action.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada lovelace", executionStep.DataOut["output"])
	assert.Equal(t, "ada lovelace", executionStep.DataIn["input"])
}

func TestStepRunner_Execute_TriggerRunsWithEmptyInput(t *testing.T) {
	f := newRunnerFixture(t)

	trigger := f.createStep(t, models.StepTypeTrigger, 1, webhookapp.AppKey, "catchRawWebhook", nil)

	executionStep, err := f.runner.Execute(t.Context(), trigger.ID)
	require.NoError(t, err)
	assert.True(t, executionStep.Succeeded())
	assert.Empty(t, executionStep.DataOut)
}
