// Package formatter provides the built-in formatter app: pure in-process
// text transforms applied to prior-step data.
package formatter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stack360co/automatisch/pkg/app"
)

const AppKey = "formatter"

var ErrUnknownTransform = errors.New("unknown text transform")

// New builds the formatter app descriptor.
func New() *app.App {
	return &app.App{
		Key:         AppKey,
		Name:        "Formatter",
		Description: "Reshape text and data between steps.",
		Actions: []app.Command{
			&textTransform{},
		},
	}
}

type textTransform struct{}

func (a *textTransform) Key() string  { return "text" }
func (a *textTransform) Name() string { return "Text" }

func (a *textTransform) Description() string {
	return "Applies a text transform to the input value."
}

func (a *textTransform) SetupFields() []app.SetupField {
	return []app.SetupField{
		{Key: "input", Label: "Input", Type: "string", Required: true, Variables: true},
		{
			Key:      "transform",
			Label:    "Transform",
			Type:     "dropdown",
			Required: true,
			Options: []app.FieldOption{
				{Label: "Capitalize", Value: "capitalize"},
				{Label: "Lowercase", Value: "lowercase"},
				{Label: "Uppercase", Value: "uppercase"},
				{Label: "Trim whitespace", Value: "trim"},
			},
		},
	}
}

func (a *textTransform) Run(_ context.Context, runCtx app.RunContext) (app.RunResult, error) {
	input, _ := runCtx.Parameters["input"].(string)
	transform, _ := runCtx.Parameters["transform"].(string)

	output, err := applyTransform(transform, input)
	if err != nil {
		return app.RunResult{}, err
	}

	return app.RunResult{Data: map[string]any{"output": output}}, nil
}

func applyTransform(transform, input string) (string, error) {
	switch transform {
	case "capitalize":
		if input == "" {
			return "", nil
		}

		return strings.ToUpper(input[:1]) + input[1:], nil
	case "lowercase":
		return strings.ToLower(input), nil
	case "uppercase":
		return strings.ToUpper(input), nil
	case "trim":
		return strings.TrimSpace(input), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransform, transform)
	}
}
