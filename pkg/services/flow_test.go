package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence/file"
)

func TestFlow_Create_SeedsTriggerStep(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "New order alerts"})
	require.NoError(t, err)
	require.NotEmpty(t, flow.ID)
	assert.False(t, flow.Active)

	require.Len(t, flow.Steps, 1)
	trigger := flow.Steps[0]
	assert.Equal(t, models.StepTypeTrigger, trigger.Type)
	assert.Equal(t, 1, trigger.Position)
	assert.Equal(t, models.StepStatusIncomplete, trigger.Status)
	assert.Nil(t, trigger.AppKey)
}

func TestFlow_Create_NameRequired(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	_, err := service.Create(t.Context(), CreateFlowRequest{Name: "ab"})
	assert.ErrorIs(t, err, ErrFlowNameRequired)
}

func TestFlow_Update_Rename(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "Before"})
	require.NoError(t, err)

	name := "After rename"
	updated, err := service.Update(t.Context(), flow.ID, UpdateFlowRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "After rename", updated.Name)
}

func TestFlow_Update_ActivationRequiresCompletedSteps(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "Half built"})
	require.NoError(t, err)

	active := true
	_, err = service.Update(t.Context(), flow.ID, UpdateFlowRequest{Active: &active})
	assert.ErrorIs(t, err, ErrFlowNotReady)
}

func TestFlow_Update_ActivationSucceedsWhenReady(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "Ready to go"})
	require.NoError(t, err)

	trigger := flow.Steps[0]
	trigger.Status = models.StepStatusCompleted
	require.NoError(t, persistence.Steps().Update(t.Context(), trigger))

	active := true
	updated, err := service.Update(t.Context(), flow.ID, UpdateFlowRequest{Active: &active})
	require.NoError(t, err)
	assert.True(t, updated.Active)

	// Deactivation needs no readiness check.
	inactive := false
	updated, err = service.Update(t.Context(), flow.ID, UpdateFlowRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
}

func TestFlow_Delete(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	flow, err := service.Create(t.Context(), CreateFlowRequest{Name: "Short lived"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), flow.ID))

	_, err = service.GetByID(t.Context(), flow.ID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlow_HealthCheck(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewFlow(persistence)

	message, ok := service.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.NotEmpty(t, message)
}
