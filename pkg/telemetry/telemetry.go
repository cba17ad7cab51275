// Package telemetry notifies the event bus about step lifecycle changes.
// The sink is strictly fire-and-forget: a failing bus must never fail the
// operation that triggered the notification.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/stack360co/automatisch/pkg/eventbus"
	"github.com/stack360co/automatisch/pkg/events"
	"github.com/stack360co/automatisch/pkg/models"
)

// Notifier publishes step lifecycle events, swallowing every error.
type Notifier struct {
	bus    eventbus.EventBus
	logger *slog.Logger
}

func NewNotifier(bus eventbus.EventBus, logger *slog.Logger) *Notifier {
	return &Notifier{bus: bus, logger: logger}
}

// StepCreated notifies about a newly inserted step.
func (n *Notifier) StepCreated(ctx context.Context, step *models.Step) {
	if n == nil || n.bus == nil {
		return
	}

	event := events.StepCreated{
		BaseEvent: n.baseEvent(events.StepCreatedEvent, step.FlowID),
		StepID:    step.ID,
		StepType:  step.Type,
		Position:  step.Position,
	}

	n.publish(ctx, event)
}

// StepUpdated notifies about a step configuration change.
func (n *Notifier) StepUpdated(ctx context.Context, step *models.Step) {
	if n == nil || n.bus == nil {
		return
	}

	event := events.StepUpdated{
		BaseEvent: n.baseEvent(events.StepUpdatedEvent, step.FlowID),
		StepID:    step.ID,
		AppKey:    step.AppKey,
		Key:       step.Key,
	}

	n.publish(ctx, event)
}

func (n *Notifier) baseEvent(eventType events.EventType, flowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        n.bus.GenerateID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
	}
}

func (n *Notifier) publish(ctx context.Context, event eventbus.Event) {
	if err := n.bus.Publish(ctx, event); err != nil {
		n.logger.WarnContext(ctx, "Telemetry publish failed",
			"event_type", event.GetType(),
			"error", err)
	}
}
