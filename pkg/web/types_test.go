package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack360co/automatisch/pkg/config"
	"github.com/stack360co/automatisch/pkg/models"
)

func TestTransformStepResponse_DerivedURLs(t *testing.T) {
	cfg := &config.Config{
		WebhookBaseURL: "https://hooks.example.com",
		AssetBaseURL:   "https://cdn.example.com",
	}

	appKey := "slack"
	path := "/webhooks/0d9385ee-86a1-4a56-a9a2-5b6a1c2d3e4f"
	step := &models.Step{
		ID:          "step-1",
		FlowID:      "flow-1",
		Type:        models.StepTypeTrigger,
		Position:    1,
		AppKey:      &appKey,
		WebhookPath: &path,
		Status:      models.StepStatusIncomplete,
	}

	response := TransformStepResponse(step, cfg)

	require.NotNil(t, response.IconURL)
	assert.Equal(t, "https://cdn.example.com/apps/slack/assets/favicon.svg", *response.IconURL)

	require.NotNil(t, response.WebhookURL)
	assert.Equal(t, "https://hooks.example.com"+path, *response.WebhookURL)
}

func TestTransformStepResponse_UnboundStep(t *testing.T) {
	cfg := &config.Config{AssetBaseURL: "https://cdn.example.com"}

	response := TransformStepResponse(&models.Step{ID: "step-1"}, cfg)

	assert.Nil(t, response.IconURL)
	assert.Nil(t, response.WebhookURL)
}
