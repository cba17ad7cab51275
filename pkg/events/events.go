// Package events defines the step and flow lifecycle notifications the
// engine emits.
package events

import (
	"time"

	"github.com/stack360co/automatisch/pkg/models"
)

type EventType string

const Topic = "automatisch.events"

const EventTypeMetadataKey = "event_type"

const (
	StepCreatedEvent   EventType = "step.created"
	StepUpdatedEvent   EventType = "step.updated"
	FlowTriggeredEvent EventType = "flow.triggered"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	FlowID    string    `json:"flow_id"`
}

// StepCreated is emitted after a step is inserted into a flow.
type StepCreated struct {
	BaseEvent

	StepID   string          `json:"step_id"`
	StepType models.StepType `json:"step_type"`
	Position int             `json:"position"`
}

func (e StepCreated) GetType() EventType {
	return StepCreatedEvent
}

// StepUpdated is emitted after a step's configuration changes.
type StepUpdated struct {
	BaseEvent

	StepID string  `json:"step_id"`
	AppKey *string `json:"app_key,omitempty"`
	Key    *string `json:"key,omitempty"`
}

func (e StepUpdated) GetType() EventType {
	return StepUpdatedEvent
}

// FlowTriggered is emitted when a webhook payload arrives for a flow's
// trigger step; the companion flow runner consumes it.
type FlowTriggered struct {
	BaseEvent

	StepID      string         `json:"step_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e FlowTriggered) GetType() EventType {
	return FlowTriggeredEvent
}
