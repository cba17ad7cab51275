// Package redisq provides the built-in Redis app: actions against Redis
// lists used as lightweight queues between systems.
package redisq

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/stack360co/automatisch/pkg/app"
)

const AppKey = "redis"

var (
	ErrMissingConnection = errors.New("redis app requires a connection")
	ErrMissingQueue      = errors.New("missing 'queue' parameter")
)

// New builds the Redis app descriptor.
func New() *app.App {
	return &app.App{
		Key:         AppKey,
		Name:        "Redis",
		Description: "Push messages onto Redis lists.",
		AuthFields: []app.SetupField{
			{Key: "address", Label: "Address", Type: "string", Required: true},
			{Key: "password", Label: "Password", Type: "string", Required: false},
		},
		Actions: []app.Command{
			&publishMessage{},
		},
	}
}

type publishMessage struct{}

func (a *publishMessage) Key() string         { return "publishMessage" }
func (a *publishMessage) Name() string        { return "Publish message" }
func (a *publishMessage) Description() string { return "LPUSHes a message onto a Redis list." }

func (a *publishMessage) SetupFields() []app.SetupField {
	return []app.SetupField{
		{Key: "queue", Label: "Queue", Type: "string", Required: true},
		{Key: "message", Label: "Message", Type: "string", Required: true, Variables: true},
	}
}

func (a *publishMessage) Run(ctx context.Context, runCtx app.RunContext) (app.RunResult, error) {
	if runCtx.Connection == nil {
		return app.RunResult{}, ErrMissingConnection
	}

	queue, _ := runCtx.Parameters["queue"].(string)
	if queue == "" {
		return app.RunResult{}, ErrMissingQueue
	}

	message, _ := runCtx.Parameters["message"].(string)

	address, _ := runCtx.Connection.Data["address"].(string)
	password, _ := runCtx.Connection.Data["password"].(string)

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
	})

	defer func() {
		_ = client.Close()
	}()

	length, err := client.LPush(ctx, queue, message).Result()
	if err != nil {
		return app.RunResult{}, fmt.Errorf("failed to push to queue %q: %w", queue, err)
	}

	return app.RunResult{Data: map[string]any{
		"queue":  queue,
		"length": length,
	}}, nil
}
