// Package web provides the HTTP ingress for webhook-based triggers. Flow
// and step management happens through the services layer; this surface
// only receives webhook payloads and hands them to the engine.
package web

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/stack360co/automatisch/pkg/app"
	"github.com/stack360co/automatisch/pkg/eventbus"
	"github.com/stack360co/automatisch/pkg/events"
	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
	"github.com/stack360co/automatisch/pkg/services"
)

// WebhookHandlers receives inbound webhook requests, records them as
// execution steps of the owning trigger and notifies the flow runner.
type WebhookHandlers struct {
	persistence persistence.Persistence
	registry    *app.Registry
	flowService *services.Flow
	bus         eventbus.EventBus
	logger      *slog.Logger
}

func NewWebhookHandlers(
	persistence persistence.Persistence,
	registry *app.Registry,
	flowService *services.Flow,
	bus eventbus.EventBus,
	logger *slog.Logger,
) *WebhookHandlers {
	return &WebhookHandlers{
		persistence: persistence,
		registry:    registry,
		flowService: flowService,
		bus:         bus,
		logger:      logger,
	}
}

// NewApp builds the fiber application with the webhook routes mounted.
func NewApp(handlers *WebhookHandlers) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName: "automatisch-webhook",
	})

	fiberApp.Get("/health", handlers.HealthCheck)
	fiberApp.Post("/webhooks/:path", handlers.ReceiveWebhook)

	return fiberApp
}

func (h *WebhookHandlers) HealthCheck(c fiber.Ctx) error {
	message, ok := h.flowService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := fiber.StatusOK

	if !ok {
		status = "unhealthy"
		httpStatus = fiber.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// ReceiveWebhook looks up the trigger step owning the requested path,
// records the payload as that step's execution step and publishes a
// flow.triggered event. Unknown paths are indistinguishable from missing
// ones: both answer 404.
func (h *WebhookHandlers) ReceiveWebhook(c fiber.Ctx) error {
	path := "/webhooks/" + c.Params("path")

	step, err := h.persistence.Steps().FindByWebhookPath(c.Context(), path)
	if err != nil {
		if persistence.IsStepNotFound(err) {
			return notFound(c, "unknown webhook path")
		}

		return internalError(c, err)
	}

	flow, err := h.persistence.Flows().GetByID(c.Context(), step.FlowID)
	if err != nil {
		return handleServiceError(c, err)
	}

	payload := parsePayload(c.Body())

	executionStep, err := h.recordDelivery(c, flow, step, payload)
	if err != nil {
		return internalError(c, err)
	}

	h.publishFlowTriggered(c, flow, step, executionStep.DataOut)

	if workSynchronously(step) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": executionStep.DataOut})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// recordDelivery creates a fresh execution for the delivery and writes the
// trigger's execution step. Deliveries to steps of inactive flows are
// recorded as test runs: that is how a user verifies a webhook trigger
// before activating the flow.
func (h *WebhookHandlers) recordDelivery(
	c fiber.Ctx,
	flow *models.Flow,
	step *models.Step,
	payload map[string]any,
) (*models.ExecutionStep, error) {
	execution := &models.Execution{
		FlowID:  flow.ID,
		TestRun: !flow.Active,
	}

	if err := h.persistence.Executions().CreateExecution(c.Context(), execution); err != nil {
		return nil, err
	}

	dataOut := payload

	var runErr error

	if cmd := h.registry.ResolveStepCommand(step); cmd != nil {
		var result app.RunResult

		result, runErr = cmd.Run(c.Context(), app.RunContext{
			Step:       step,
			Parameters: step.Parameters,
			Input:      payload,
			Logger:     h.logger,
		})
		if runErr == nil {
			dataOut = result.Data
		}
	}

	executionStep := &models.ExecutionStep{
		ExecutionID: execution.ID,
		StepID:      step.ID,
		DataIn:      payload,
	}

	// A failed trigger command is still a delivery the user must be able to
	// audit, so the execution step is written either way.
	if runErr != nil {
		executionStep.Status = models.ExecutionStepStatusFailure
		executionStep.ErrorDetails = map[string]any{"error": runErr.Error()}
	} else {
		executionStep.Status = models.ExecutionStepStatusSuccess
		executionStep.DataOut = dataOut
	}

	if err := h.persistence.Executions().CreateExecutionStep(c.Context(), executionStep); err != nil {
		return nil, err
	}

	if runErr != nil {
		return nil, runErr
	}

	return executionStep, nil
}

func (h *WebhookHandlers) publishFlowTriggered(
	c fiber.Ctx,
	flow *models.Flow,
	step *models.Step,
	triggerData map[string]any,
) {
	if h.bus == nil {
		return
	}

	event := events.FlowTriggered{
		BaseEvent: events.BaseEvent{
			ID:        h.bus.GenerateID(),
			Type:      events.FlowTriggeredEvent,
			Timestamp: time.Now().UTC(),
			FlowID:    flow.ID,
		},
		StepID:      step.ID,
		TriggerData: triggerData,
	}

	if err := h.bus.Publish(c.Context(), event); err != nil {
		h.logger.Warn("Failed to publish flow.triggered",
			"flow_id", flow.ID,
			"step_id", step.ID,
			"error", err)
	}
}

// parsePayload decodes the request body as a JSON object. Non-object and
// non-JSON bodies are preserved under a "raw" key so nothing is lost.
func parsePayload(body []byte) map[string]any {
	if len(body) == 0 {
		return map[string]any{}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload
	}

	return map[string]any{"raw": string(body)}
}

func workSynchronously(step *models.Step) bool {
	value, ok := step.Parameters["workSynchronously"]
	if !ok {
		return false
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
