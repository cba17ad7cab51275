// Package app defines the contract between the engine and pluggable app
// integrations: the App descriptor, the Command capability and the
// process-wide registry they are resolved through.
package app

import (
	"context"
	"log/slog"

	"github.com/stack360co/automatisch/pkg/models"
)

// CommandType selects which of an app's command catalogs a key is resolved
// against.
type CommandType string

const (
	CommandTypeTrigger CommandType = "trigger"
	CommandTypeAction  CommandType = "action"
)

// FieldOption is one selectable value of a dropdown setup field.
type FieldOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// SetupField describes one user-configurable parameter of a command. It is
// pure metadata; the UI renders it and the engine validates step parameters
// against it.
type SetupField struct {
	Key         string        `json:"key"`
	Label       string        `json:"label"`
	Type        string        `json:"type"` // "string", "dropdown", ...
	Required    bool          `json:"required"`
	Description string        `json:"description,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	Variables   bool          `json:"variables,omitempty"`
}

// RunContext carries everything a command needs to execute: the step's
// parameters (already interpolated), the resolved connection credentials and
// the output of the previous step when running inside a flow.
type RunContext struct {
	Step       *models.Step
	Connection *models.Connection
	Parameters map[string]any
	Input      map[string]any
	WebhookURL string
	Logger     *slog.Logger
}

// RunResult is the data a command produced. It becomes the execution step's
// data_out snapshot.
type RunResult struct {
	Data map[string]any `json:"data"`
}

// Command is one executable capability (trigger or action) of an app. A
// command is a capability descriptor: it is never persisted, only referenced
// by key from a step.
type Command interface {
	Key() string
	Name() string
	Description() string
	SetupFields() []SetupField

	// Run executes the command. It may call external services; the engine
	// does not distinguish test execution from live execution here.
	Run(ctx context.Context, runCtx RunContext) (RunResult, error)
}

// WebhookTrigger marks trigger commands that receive their events over an
// inbound webhook URL rather than by polling.
type WebhookTrigger interface {
	WebhookBased() bool
}

// IsWebhookBased reports whether a command declared itself webhook-based.
func IsWebhookBased(cmd Command) bool {
	wt, ok := cmd.(WebhookTrigger)

	return ok && wt.WebhookBased()
}
