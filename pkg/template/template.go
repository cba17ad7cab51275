// Package template resolves {{...}} variable references inside step
// parameters before command execution.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Render executes a parameter value as a text template against data. Values
// without template markers pass through untouched. Results that look like
// JSON are decoded so commands receive structured data, not strings.
func Render(input string, data map[string]any) (any, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	tmpl, err := template.
		New("parameter").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).
		Option("missingkey=zero").
		Parse(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", input, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", input, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(result), &decoded); err == nil {
			return decoded, nil
		}
	}

	return result, nil
}

// RenderParameters renders every string value of a parameter bag, walking
// nested maps and slices. Non-string scalars pass through unchanged.
func RenderParameters(parameters map[string]any, data map[string]any) (map[string]any, error) {
	if parameters == nil {
		return map[string]any{}, nil
	}

	rendered := make(map[string]any, len(parameters))

	for key, value := range parameters {
		out, err := renderValue(value, data)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}

		rendered[key] = out
	}

	return rendered, nil
}

func renderValue(value any, data map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, data)
	case map[string]any:
		return RenderParameters(v, data)
	case []any:
		rendered := make([]any, len(v))
		for i, item := range v {
			out, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			rendered[i] = out
		}

		return rendered, nil
	default:
		return value, nil
	}
}
