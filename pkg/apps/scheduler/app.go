// Package scheduler provides the built-in scheduler app: time-based
// triggers that fire on fixed intervals or a custom cron expression.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stack360co/automatisch/pkg/app"
)

const AppKey = "scheduler"

// ErrInvalidCronExpression indicates the custom trigger's expression does
// not parse as standard cron syntax.
var ErrInvalidCronExpression = errors.New("invalid cron expression")

// New builds the scheduler app descriptor.
func New() *app.App {
	return &app.App{
		Key:         AppKey,
		Name:        "Scheduler",
		Description: "Start flows on a time schedule.",
		Triggers: []app.Command{
			&intervalTrigger{key: "everyHour", name: "Every hour"},
			&intervalTrigger{key: "everyDay", name: "Every day"},
			&cronTrigger{},
		},
	}
}

// tickData is the sample payload a scheduler trigger produces. The actual
// firing cadence is driven by the companion runner; the command only
// materializes what a tick looks like.
func tickData(now time.Time) map[string]any {
	return map[string]any{
		"ISO_string_date": now.UTC().Format(time.RFC3339),
		"timestamp":       now.Unix(),
		"day_of_week":     now.UTC().Weekday().String(),
		"hour":            now.UTC().Hour(),
	}
}

type intervalTrigger struct {
	key  string
	name string
}

func (t *intervalTrigger) Key() string         { return t.key }
func (t *intervalTrigger) Name() string        { return t.name }
func (t *intervalTrigger) Description() string { return "Fires on a fixed interval." }

func (t *intervalTrigger) SetupFields() []app.SetupField {
	return nil
}

func (t *intervalTrigger) Run(_ context.Context, _ app.RunContext) (app.RunResult, error) {
	return app.RunResult{Data: tickData(time.Now())}, nil
}

type cronTrigger struct{}

func (t *cronTrigger) Key() string  { return "customCron" }
func (t *cronTrigger) Name() string { return "Custom schedule" }

func (t *cronTrigger) Description() string {
	return "Fires on a schedule described by a standard cron expression."
}

func (t *cronTrigger) SetupFields() []app.SetupField {
	return []app.SetupField{
		{
			Key:         "expression",
			Label:       "Cron expression",
			Type:        "string",
			Required:    true,
			Description: "Standard five-field cron syntax, e.g. */15 * * * *.",
		},
	}
}

func (t *cronTrigger) Run(_ context.Context, runCtx app.RunContext) (app.RunResult, error) {
	expression, _ := runCtx.Parameters["expression"].(string)

	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return app.RunResult{}, fmt.Errorf("%w: %q", ErrInvalidCronExpression, expression)
	}

	now := time.Now()
	data := tickData(now)
	data["next_run"] = schedule.Next(now).UTC().Format(time.RFC3339)

	return app.RunResult{Data: data}, nil
}
