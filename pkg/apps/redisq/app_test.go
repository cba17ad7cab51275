package redisq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/app"
	"github.com/stack360co/automatisch/pkg/models"
)

func TestPublishMessage_RequiresConnection(t *testing.T) {
	action := New().ActionByKey("publishMessage")
	require.NotNil(t, action)

	_, err := action.Run(t.Context(), app.RunContext{Parameters: map[string]any{
		"queue":   "orders",
		"message": "hi",
	}})
	assert.ErrorIs(t, err, ErrMissingConnection)
}

func TestPublishMessage_RequiresQueue(t *testing.T) {
	action := New().ActionByKey("publishMessage")

	_, err := action.Run(t.Context(), app.RunContext{
		Connection: &models.Connection{Data: map[string]any{"address": "localhost:6379"}},
		Parameters: map[string]any{"message": "hi"},
	})
	assert.ErrorIs(t, err, ErrMissingQueue)
}

func TestRedisApp_DeclaresAuthFields(t *testing.T) {
	redisApp := New()

	require.Len(t, redisApp.AuthFields, 2)
	assert.Equal(t, "address", redisApp.AuthFields[0].Key)
	assert.True(t, redisApp.AuthFields[0].Required)
}
