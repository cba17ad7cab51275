// Package delay provides the built-in delay app. Its actions compute how
// long the flow should pause; the waiting itself belongs to the runner.
package delay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stack360co/automatisch/pkg/app"
)

const AppKey = "delay"

var (
	ErrInvalidDuration  = errors.New("invalid delay duration")
	ErrInvalidTimestamp = errors.New("invalid delay timestamp")
)

// New builds the delay app descriptor.
func New() *app.App {
	return &app.App{
		Key:         AppKey,
		Name:        "Delay",
		Description: "Pause a flow for a duration or until a point in time.",
		Actions: []app.Command{
			&delayFor{},
			&delayUntil{},
		},
	}
}

type delayFor struct{}

func (a *delayFor) Key() string         { return "delayFor" }
func (a *delayFor) Name() string        { return "Delay for" }
func (a *delayFor) Description() string { return "Delays the next step by a fixed duration." }

func (a *delayFor) SetupFields() []app.SetupField {
	return []app.SetupField{
		{Key: "delayForValue", Label: "Value", Type: "string", Required: true, Variables: true},
		{
			Key:      "delayForUnit",
			Label:    "Unit",
			Type:     "dropdown",
			Required: true,
			Options: []app.FieldOption{
				{Label: "Seconds", Value: "seconds"},
				{Label: "Minutes", Value: "minutes"},
				{Label: "Hours", Value: "hours"},
				{Label: "Days", Value: "days"},
			},
		},
	}
}

func (a *delayFor) Run(_ context.Context, runCtx app.RunContext) (app.RunResult, error) {
	rawValue := fmt.Sprintf("%v", runCtx.Parameters["delayForValue"])

	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil || value < 0 {
		return app.RunResult{}, fmt.Errorf("%w: %q", ErrInvalidDuration, rawValue)
	}

	unit, _ := runCtx.Parameters["delayForUnit"].(string)

	var per time.Duration

	switch unit {
	case "seconds":
		per = time.Second
	case "minutes":
		per = time.Minute
	case "hours":
		per = time.Hour
	case "days":
		per = 24 * time.Hour
	default:
		return app.RunResult{}, fmt.Errorf("%w: unit %q", ErrInvalidDuration, unit)
	}

	delay := time.Duration(value * float64(per))

	return app.RunResult{Data: map[string]any{"delayMs": delay.Milliseconds()}}, nil
}

type delayUntil struct{}

func (a *delayUntil) Key() string         { return "delayUntil" }
func (a *delayUntil) Name() string        { return "Delay until" }
func (a *delayUntil) Description() string { return "Delays the next step until a point in time." }

func (a *delayUntil) SetupFields() []app.SetupField {
	return []app.SetupField{
		{
			Key:         "delayUntil",
			Label:       "Until",
			Type:        "string",
			Required:    true,
			Variables:   true,
			Description: "RFC 3339 timestamp, e.g. 2026-09-01T08:00:00Z.",
		},
	}
}

func (a *delayUntil) Run(_ context.Context, runCtx app.RunContext) (app.RunResult, error) {
	raw, _ := runCtx.Parameters["delayUntil"].(string)

	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return app.RunResult{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}

	delay := time.Until(until)
	if delay < 0 {
		delay = 0
	}

	return app.RunResult{Data: map[string]any{
		"delayMs": delay.Milliseconds(),
		"until":   until.UTC().Format(time.RFC3339),
	}}, nil
}
