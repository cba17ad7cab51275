// Package webhookapp provides the built-in webhook app: a single
// webhook-based trigger that catches raw inbound payloads.
package webhookapp

import (
	"context"

	"github.com/stack360co/automatisch/pkg/app"
)

const AppKey = "webhook"

// New builds the webhook app descriptor.
func New() *app.App {
	return &app.App{
		Key:         AppKey,
		Name:        "Webhook",
		Description: "Trigger flows from any service that can send an HTTP request.",
		Triggers: []app.Command{
			&catchRawWebhook{},
		},
	}
}

type catchRawWebhook struct{}

func (c *catchRawWebhook) Key() string  { return "catchRawWebhook" }
func (c *catchRawWebhook) Name() string { return "Catch raw webhook" }

func (c *catchRawWebhook) Description() string {
	return "Fires on every request sent to the step's webhook URL and exposes the raw payload."
}

func (c *catchRawWebhook) WebhookBased() bool { return true }

func (c *catchRawWebhook) SetupFields() []app.SetupField {
	return []app.SetupField{
		{
			Key:      "workSynchronously",
			Label:    "Wait until flow is done",
			Type:     "dropdown",
			Required: true,
			Options: []app.FieldOption{
				{Label: "Yes", Value: "true"},
				{Label: "No", Value: "false"},
			},
		},
	}
}

// Run echoes the inbound payload. The payload arrives as run input, placed
// there by the webhook receiver.
func (c *catchRawWebhook) Run(_ context.Context, runCtx app.RunContext) (app.RunResult, error) {
	data := runCtx.Input
	if data == nil {
		data = map[string]any{}
	}

	return app.RunResult{Data: data}, nil
}
