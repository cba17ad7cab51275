// Package eventbus provides event-driven communication between the engine
// and the companion flow runner.
package eventbus

import (
	"context"

	"github.com/stack360co/automatisch/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
	Close() error
	GenerateID() string
}
