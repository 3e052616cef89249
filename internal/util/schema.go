package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a value that does not conform to a JSON schema.
type ValidationError struct {
	Schema  string `json:"schema"`  // Schema resource name
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error against '%s': %s", e.Schema, e.Message)
}

// CompileSchema compiles a JSON schema given as a Go map. The map is round
// tripped through JSON so typed slices ([]string) and numbers are normalized
// to the shapes the compiler expects.
func CompileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	doc, err := normalize(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", name, err)
	}

	url := name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// ValidateValue validates an arbitrary Go value against a compiled schema.
func ValidateValue(schema *jsonschema.Schema, value any) error {
	inst, err := normalize(value)
	if err != nil {
		return &ValidationError{Schema: schema.Location, Message: err.Error()}
	}
	if err := schema.Validate(inst); err != nil {
		return &ValidationError{Schema: schema.Location, Message: err.Error()}
	}
	return nil
}

// ValidateJSON validates a raw JSON document against a compiled schema.
func ValidateJSON(schema *jsonschema.Schema, raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ValidationError{Schema: schema.Location, Message: err.Error()}
	}
	if err := schema.Validate(inst); err != nil {
		return &ValidationError{Schema: schema.Location, Message: err.Error()}
	}
	return nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// FieldName returns the JSON name of a struct field ("" when the field is skipped).
func FieldName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(jsonTag, ","); name != "" {
		return name
	}
	return field.Name
}

// HasOmitEmpty checks if a JSON tag has the "omitempty" option.
func HasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}
