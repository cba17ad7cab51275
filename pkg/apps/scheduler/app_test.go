package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/app"
)

func TestIntervalTriggers(t *testing.T) {
	schedulerApp := New()

	for _, key := range []string{"everyHour", "everyDay"} {
		trigger := schedulerApp.TriggerByKey(key)
		require.NotNil(t, trigger, key)

		result, err := trigger.Run(t.Context(), app.RunContext{})
		require.NoError(t, err, key)

		assert.Contains(t, result.Data, "ISO_string_date")
		assert.Contains(t, result.Data, "timestamp")
		assert.Contains(t, result.Data, "day_of_week")
		assert.Contains(t, result.Data, "hour")
	}
}

func TestCustomCron(t *testing.T) {
	trigger := New().TriggerByKey("customCron")
	require.NotNil(t, trigger)

	result, err := trigger.Run(t.Context(), app.RunContext{Parameters: map[string]any{
		"expression": "*/15 * * * *",
	}})
	require.NoError(t, err)
	assert.Contains(t, result.Data, "next_run")
}

func TestCustomCron_InvalidExpression(t *testing.T) {
	trigger := New().TriggerByKey("customCron")

	_, err := trigger.Run(t.Context(), app.RunContext{Parameters: map[string]any{
		"expression": "every full moon",
	}})
	assert.ErrorIs(t, err, ErrInvalidCronExpression)
}

func TestSchedulerTriggersAreNotWebhookBased(t *testing.T) {
	for _, trigger := range New().Triggers {
		assert.False(t, app.IsWebhookBased(trigger), trigger.Key())
	}
}
