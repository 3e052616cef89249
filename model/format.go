package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	invopop "github.com/invopop/jsonschema"

	"github.com/hupe1980/modelmesh/internal/util"
)

// ResponseFormat describes the structured output a response must conform to.
type ResponseFormat struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
	Strict      bool           `json:"strict,omitempty"`
}

// ResponseFormatFor reflects the JSON schema of T.
func ResponseFormatFor[T any](name, description string) (*ResponseFormat, error) {
	r := &invopop.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	s := r.Reflect(new(T))

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("model: reflect schema of %s: %w", name, err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("model: reflect schema of %s: %w", name, err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")

	return &ResponseFormat{Name: name, Description: description, Schema: schema, Strict: true}, nil
}

// Validate checks content against the schema. Syntax slips are repaired
// first; truncated content fails.
func (rf *ResponseFormat) Validate(content string) error {
	_, err := rf.normalize(content)
	return err
}

func (rf *ResponseFormat) normalize(content string) ([]byte, error) {
	schema, err := util.CompileSchema(rf.Name, rf.Schema)
	if err != nil {
		return nil, err
	}
	fixed, err := util.RepairJSON(content)
	if err != nil {
		return nil, &util.ValidationError{Schema: rf.Name, Message: err.Error()}
	}
	raw := []byte(fixed)
	if err := util.ValidateJSON(schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Decode validates the content of resp against rf and decodes it into T.
func Decode[T any](resp *Response, rf *ResponseFormat) (T, error) {
	var out T
	if resp == nil || rf == nil {
		return out, errors.New("model: decode requires a response and a response format")
	}
	raw, err := rf.normalize(resp.Message().Content)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("model: decode %s: %w", rf.Name, err)
	}
	return out, nil
}

// InvalidResponseFormatError is returned when the requested output format
// cannot be served by the selected adapter.
type InvalidResponseFormatError struct {
	Adapter string
	Format  Format
	Reason  string
}

func (e *InvalidResponseFormatError) Error() string {
	if e.Adapter == "" {
		return fmt.Sprintf("model: invalid response format %q: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("model: invalid response format %q for adapter %s: %s", e.Format, e.Adapter, e.Reason)
}

const formatInstruction = `Respond only with a JSON object{{ if .name }} named "{{ .name }}"{{ end }} that conforms to the following JSON schema. Do not wrap it in markdown.
{{- if .description }}
{{ .description }}
{{- end }}

{{ json .schema }}`

// PrepareFormat checks the request's output options against the adapter.
// When the adapter cannot enforce a response format natively, a system
// instruction describing the schema is injected and a new request returned.
func PrepareFormat(req *Request, adapter Adapter) (*Request, error) {
	opts := req.Options()
	name := AdapterName(adapter)

	if !opts.Format.Valid() {
		return nil, &InvalidResponseFormatError{Adapter: name, Format: opts.Format, Reason: "unknown format"}
	}
	if req.Kind() == KindImage && (opts.Format != FormatText || opts.ResponseFormat != nil) {
		return nil, &InvalidResponseFormatError{Adapter: name, Format: opts.Format, Reason: "image requests cannot produce structured output"}
	}

	fs, native := adapter.(FormatSupporter)
	if opts.Format == FormatJSON && native && !fs.SupportsFormat(FormatJSON) {
		return nil, &InvalidResponseFormatError{Adapter: name, Format: opts.Format, Reason: "adapter does not support json output"}
	}

	rf := opts.ResponseFormat
	if rf == nil || (native && fs.SupportsResponseFormat()) {
		return req, nil
	}
	if len(rf.Schema) == 0 {
		return nil, &InvalidResponseFormatError{Adapter: name, Format: opts.Format, Reason: "response format has no schema"}
	}

	text, err := util.RenderTemplate(formatInstruction, map[string]any{
		"name":        rf.Name,
		"description": rf.Description,
		"schema":      rf.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("model: render format instruction: %w", err)
	}
	return req.WithSystemInstruction(text), nil
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
