package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

func newStore(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func createFlow(t *testing.T, store *Persistence, name string) *models.Flow {
	t.Helper()

	flow := &models.Flow{Name: name}
	require.NoError(t, store.Flows().Create(t.Context(), flow))
	require.NotEmpty(t, flow.ID)

	return flow
}

func createStep(t *testing.T, store *Persistence, flowID string, stepType models.StepType, position int) *models.Step {
	t.Helper()

	step := &models.Step{FlowID: flowID, Type: stepType, Position: position}
	require.NoError(t, store.Steps().CreateAt(t.Context(), step))

	return step
}

func TestFlowRepository_CreateAndGet(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Order sync")

	loaded, err := store.Flows().GetByID(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order sync", loaded.Name)
	assert.False(t, loaded.Active)
	assert.Empty(t, loaded.Steps)
}

func TestFlowRepository_GetByID_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Flows().GetByID(t.Context(), "missing")
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)
}

func TestFlowRepository_LoadsStepsInPositionOrder(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Ordered")

	createStep(t, store, flow.ID, models.StepTypeTrigger, 1)
	createStep(t, store, flow.ID, models.StepTypeAction, 2)
	createStep(t, store, flow.ID, models.StepTypeAction, 3)

	loaded, err := store.Flows().GetByID(t.Context(), flow.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 3)

	for i, step := range loaded.Steps {
		assert.Equal(t, i+1, step.Position)
	}
}

func TestFlowRepository_DeleteCascades(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Doomed")
	step := createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	execution := &models.Execution{FlowID: flow.ID, TestRun: true}
	require.NoError(t, store.Executions().CreateExecution(t.Context(), execution))
	require.NoError(t, store.Executions().CreateExecutionStep(t.Context(), &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Status:      models.ExecutionStepStatusSuccess,
	}))

	require.NoError(t, store.Flows().Delete(t.Context(), flow.ID))

	_, err := store.Flows().GetByID(t.Context(), flow.ID)
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)

	_, err = store.Steps().GetByID(t.Context(), step.ID)
	assert.ErrorIs(t, err, persistence.ErrStepNotFound)

	_, err = store.Executions().LastExecutionStepByStepID(t.Context(), step.ID)
	assert.ErrorIs(t, err, persistence.ErrExecutionStepNotFound)
}

func TestStepRepository_CreateAtShiftsSiblings(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Shifting")

	createStep(t, store, flow.ID, models.StepTypeTrigger, 1)
	second := createStep(t, store, flow.ID, models.StepTypeAction, 2)
	third := createStep(t, store, flow.ID, models.StepTypeAction, 3)

	// Insert between the trigger and the first action.
	inserted := createStep(t, store, flow.ID, models.StepTypeAction, 2)

	steps, err := store.Steps().ListByFlow(t.Context(), flow.ID)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, inserted.ID, steps[1].ID)

	reloadedSecond, err := store.Steps().GetByID(t.Context(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloadedSecond.Position)

	reloadedThird, err := store.Steps().GetByID(t.Context(), third.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reloadedThird.Position)
}

func TestStepRepository_CreateAt_UnknownFlow(t *testing.T) {
	store := newStore(t)

	err := store.Steps().CreateAt(t.Context(), &models.Step{
		FlowID:   "missing",
		Type:     models.StepTypeTrigger,
		Position: 1,
	})
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)
}

func TestStepRepository_CreateAt_StaleSnapshotCannotCommitGap(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Raced")

	createStep(t, store, flow.ID, models.StepTypeTrigger, 1)
	second := createStep(t, store, flow.ID, models.StepTypeAction, 2)
	createStep(t, store, flow.ID, models.StepTypeAction, 3)

	// One editor validated an append at position 4 against [1,2,3]; another
	// editor's delete lands first and shrinks the flow to [1,2].
	require.NoError(t, store.Steps().Delete(t.Context(), second.ID))

	err := store.Steps().CreateAt(t.Context(), &models.Step{
		FlowID:   flow.ID,
		Type:     models.StepTypeAction,
		Position: 4,
	})
	assert.ErrorIs(t, err, models.ErrInvalidPosition)

	steps, err := store.Steps().ListByFlow(t.Context(), flow.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Position)
	}
}

func TestStepRepository_CreateAt_StaleSnapshotCannotOrphanAction(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Emptied")

	trigger := createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	// An append at position 2 was validated while the trigger existed, but
	// the trigger is gone by the time the insert lands.
	require.NoError(t, store.Steps().Delete(t.Context(), trigger.ID))

	err := store.Steps().CreateAt(t.Context(), &models.Step{
		FlowID:   flow.ID,
		Type:     models.StepTypeAction,
		Position: 2,
	})
	assert.ErrorIs(t, err, models.ErrInvalidPosition)

	steps, err := store.Steps().ListByFlow(t.Context(), flow.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestStepRepository_CreateAt_EnforcesTriggerSlot(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Guarded")

	createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	err := store.Steps().CreateAt(t.Context(), &models.Step{
		FlowID:   flow.ID,
		Type:     models.StepTypeTrigger,
		Position: 2,
	})
	assert.ErrorIs(t, err, models.ErrTriggerPosition)

	// Taking position 1 of a non-empty flow would shift the trigger to 2.
	err = store.Steps().CreateAt(t.Context(), &models.Step{
		FlowID:   flow.ID,
		Type:     models.StepTypeTrigger,
		Position: 1,
	})
	assert.ErrorIs(t, err, models.ErrTriggerPosition)

	steps, err := store.Steps().ListByFlow(t.Context(), flow.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepTypeTrigger, steps[0].Type)
}

func TestStepRepository_DeleteCompactsPositions(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Compacting")

	createStep(t, store, flow.ID, models.StepTypeTrigger, 1)
	second := createStep(t, store, flow.ID, models.StepTypeAction, 2)
	third := createStep(t, store, flow.ID, models.StepTypeAction, 3)
	fourth := createStep(t, store, flow.ID, models.StepTypeAction, 4)

	// Deleting position 3 from [1,2,3,4] must leave [1,2,3].
	require.NoError(t, store.Steps().Delete(t.Context(), third.ID))

	steps, err := store.Steps().ListByFlow(t.Context(), flow.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, 2, mustGet(t, store, second.ID).Position)
	assert.Equal(t, 3, mustGet(t, store, fourth.ID).Position)
}

func TestStepRepository_DeleteCascadesExecutionSteps(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Audited")
	step := createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	execution := &models.Execution{FlowID: flow.ID, TestRun: true}
	require.NoError(t, store.Executions().CreateExecution(t.Context(), execution))
	require.NoError(t, store.Executions().CreateExecutionStep(t.Context(), &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Status:      models.ExecutionStepStatusFailure,
	}))

	require.NoError(t, store.Steps().Delete(t.Context(), step.ID))

	_, err := store.Executions().LastExecutionStepByStepID(t.Context(), step.ID)
	assert.ErrorIs(t, err, persistence.ErrExecutionStepNotFound)
}

func TestStepRepository_UpdatePreservesPositionAndFlow(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Pinned")
	step := createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	appKey := "webhook"
	step.AppKey = &appKey
	step.Position = 99
	step.FlowID = "elsewhere"

	require.NoError(t, store.Steps().Update(t.Context(), step))

	reloaded := mustGet(t, store, step.ID)
	assert.Equal(t, "webhook", reloaded.AppKeyValue())
	assert.Equal(t, 1, reloaded.Position)
	assert.Equal(t, flow.ID, reloaded.FlowID)
}

func TestStepRepository_FindByWebhookPath(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "Hooked")
	step := createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	path := "/webhooks/8a9c5a6e-9df8-4a0b-b45f-6f1f7a7e2a01"
	step.WebhookPath = &path
	require.NoError(t, store.Steps().Update(t.Context(), step))

	found, err := store.Steps().FindByWebhookPath(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, step.ID, found.ID)

	_, err = store.Steps().FindByWebhookPath(t.Context(), "/webhooks/unknown")
	assert.ErrorIs(t, err, persistence.ErrStepNotFound)
}

func TestExecutionRepository_LastExecutionStepByStepID(t *testing.T) {
	store := newStore(t)
	flow := createFlow(t, store, "History")
	step := createStep(t, store, flow.ID, models.StepTypeTrigger, 1)

	execution := &models.Execution{FlowID: flow.ID, TestRun: true}
	require.NoError(t, store.Executions().CreateExecution(t.Context(), execution))

	older := &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Status:      models.ExecutionStepStatusFailure,
		CreatedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Status:      models.ExecutionStepStatusSuccess,
		CreatedAt:   time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Executions().CreateExecutionStep(t.Context(), older))
	require.NoError(t, store.Executions().CreateExecutionStep(t.Context(), newer))

	last, err := store.Executions().LastExecutionStepByStepID(t.Context(), step.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, last.ID)
	assert.True(t, last.Succeeded())
}

func TestConnectionRepository_SaveAndGet(t *testing.T) {
	store := newStore(t)

	connection := &models.Connection{
		AppKey: "redis",
		Data:   map[string]any{"address": "localhost:6379"},
	}
	require.NoError(t, store.Connections().Save(t.Context(), connection))
	require.NotEmpty(t, connection.ID)

	loaded, err := store.Connections().GetByID(t.Context(), connection.ID)
	require.NoError(t, err)
	assert.Equal(t, "redis", loaded.AppKey)
	assert.Equal(t, "localhost:6379", loaded.Data["address"])

	require.NoError(t, store.Connections().Delete(t.Context(), connection.ID))

	_, err = store.Connections().GetByID(t.Context(), connection.ID)
	assert.ErrorIs(t, err, persistence.ErrConnectionNotFound)
}

func mustGet(t *testing.T, store *Persistence, id string) *models.Step {
	t.Helper()

	step, err := store.Steps().GetByID(t.Context(), id)
	require.NoError(t, err)

	return step
}
