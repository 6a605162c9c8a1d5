package toolengine

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// compiledSchema is a JSON Schema compiled once at registration time so
// validation on the invocation path never re-parses schema documents.
type compiledSchema struct {
	schema *gojsonschema.Schema
}

func compileSchema(doc map[string]interface{}) (*compiledSchema, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &compiledSchema{schema: schema}, nil
}

// validate runs the compiled schema against a value and returns the
// field-level violations. Deterministic and side-effect free.
func (c *compiledSchema) validate(value interface{}) ([]Violation, error) {
	if c == nil {
		return nil, nil
	}
	result, err := c.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, Violation{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return violations, nil
}

// ValidateInput checks the argument map against the tool's input schema.
// A nil return means the arguments are valid; violations come back as an
// INVALID_ARGUMENTS error with per-field detail. Unknown fields pass
// through unvalidated unless the schema itself forbids them.
func ValidateInput(tool *Tool, args map[string]interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	violations, err := tool.inputSchema.validate(args)
	if err != nil {
		return NewInternalError(fmt.Sprintf("input validation failed for tool '%s'", tool.Descriptor.Name), err)
	}
	if len(violations) > 0 {
		return NewValidationError(tool.Descriptor.Name, violations)
	}
	return nil
}

// ValidateOutput checks a produced value against the tool's output schema.
// Advisory only: the caller logs a mismatch as a warning and still returns
// the value. Bad requests are rejected eagerly, produced results never are.
func ValidateOutput(tool *Tool, value interface{}) []Violation {
	violations, err := tool.outputSchema.validate(value)
	if err != nil {
		return []Violation{{Field: "(output)", Message: err.Error()}}
	}
	return violations
}
