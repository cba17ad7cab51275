package web

import (
	"github.com/stack360co/automatisch/pkg/config"
	"github.com/stack360co/automatisch/pkg/models"
)

// StepResponse is the serialized view of a step. The icon and webhook URLs
// are derived at serialization time from the current configuration; they
// are never stored.
type StepResponse struct {
	ID         string            `json:"id"`
	FlowID     string            `json:"flow_id"`
	Type       models.StepType   `json:"type"`
	Position   int               `json:"position"`
	AppKey     *string           `json:"app_key,omitempty"`
	Key        *string           `json:"key,omitempty"`
	Status     models.StepStatus `json:"status"`
	Parameters map[string]any    `json:"parameters"`
	IconURL    *string           `json:"icon_url,omitempty"`
	WebhookURL *string           `json:"webhook_url,omitempty"`
}

// TransformStepResponse projects a step for serialization, deriving
// icon_url from the bound app key and webhook_url from the assigned
// webhook path. Unbound fields stay nil.
func TransformStepResponse(step *models.Step, cfg *config.Config) StepResponse {
	response := StepResponse{
		ID:         step.ID,
		FlowID:     step.FlowID,
		Type:       step.Type,
		Position:   step.Position,
		AppKey:     step.AppKey,
		Key:        step.Key,
		Status:     step.Status,
		Parameters: step.Parameters,
	}

	if step.AppKey != nil {
		iconURL := cfg.AssetBaseURL + "/apps/" + *step.AppKey + "/assets/favicon.svg"
		response.IconURL = &iconURL
	}

	if step.WebhookPath != nil {
		webhookURL := cfg.WebhookBaseURL + *step.WebhookPath
		response.WebhookURL = &webhookURL
	}

	return response
}
