package app

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParameterSchema derives a JSON schema from a command's setup fields.
// Fields flagged as accepting variables are left as plain strings; the
// template layer resolves them before execution.
func ParameterSchema(cmd Command) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for _, field := range cmd.SetupFields() {
		property := map[string]any{}

		switch field.Type {
		case "dropdown":
			values := make([]any, 0, len(field.Options))
			for _, option := range field.Options {
				values = append(values, option.Value)
			}

			property["enum"] = values
		default:
			property["type"] = "string"
		}

		properties[field.Key] = property

		if field.Required {
			required = append(required, field.Key)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// ValidateParameters checks a step's parameter bag against the schema
// derived from the resolved command. Unknown keys are tolerated; missing
// required fields and enum mismatches are not.
func ValidateParameters(cmd Command, parameters map[string]any) error {
	if parameters == nil {
		parameters = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(ParameterSchema(cmd))
	documentLoader := gojsonschema.NewGoLoader(parameters)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("parameter validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		details = append(details, resultErr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(details, "; "))
}
