package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/modelmesh/internal/util"
)

// ToolCallType is the kind of a tool call. Only functions exist today.
type ToolCallType string

// ToolCallFunction marks a function tool call.
const ToolCallFunction ToolCallType = "function"

// ErrMalformedArguments is returned when tool call arguments are not a JSON object,
// even after repair.
var ErrMalformedArguments = errors.New("malformed tool call arguments")

// ToolCall is a model-issued request to invoke a registered tool.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	Type      ToolCallType
	ID        string
	Name      string
	Arguments map[string]any
}

// NewToolCall creates a function tool call.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	if args == nil {
		args = map[string]any{}
	}
	return ToolCall{Type: ToolCallFunction, ID: id, Name: name, Arguments: args}
}

// ArgumentsJSON serializes the arguments map into the JSON string providers expect.
func (tc ToolCall) ArgumentsJSON() (string, error) {
	if len(tc.Arguments) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(tc.Arguments)
	if err != nil {
		return "", fmt.Errorf("encode arguments of %s: %w", tc.Name, err)
	}
	return string(b), nil
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     ToolCallType `json:"type"`
	Function wireFunction `json:"function"`
}

func (tc ToolCall) wire() map[string]any {
	args, err := tc.ArgumentsJSON()
	if err != nil {
		args = "{}"
	}
	typ := tc.Type
	if typ == "" {
		typ = ToolCallFunction
	}
	return map[string]any{
		"id":   tc.ID,
		"type": string(typ),
		"function": map[string]any{
			"name":      tc.Name,
			"arguments": args,
		},
	}
}

// MarshalJSON encodes the call in the provider wire format
// ({id, type, function: {name, arguments: "<json>"}}).
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	args, err := tc.ArgumentsJSON()
	if err != nil {
		return nil, err
	}
	typ := tc.Type
	if typ == "" {
		typ = ToolCallFunction
	}
	return json.Marshal(wireToolCall{
		ID:       tc.ID,
		Type:     typ,
		Function: wireFunction{Name: tc.Name, Arguments: args},
	})
}

// UnmarshalJSON decodes the provider wire format, parsing the arguments string.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var w wireToolCall
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	args, err := ParseArguments(w.Function.Arguments)
	if err != nil {
		return err
	}
	typ := w.Type
	if typ == "" {
		typ = ToolCallFunction
	}
	*tc = ToolCall{Type: typ, ID: w.ID, Name: w.Function.Name, Arguments: args}
	return nil
}

// ParseArguments decodes a JSON encoded argument object. Syntax slips models
// commonly make (single quotes, trailing commas, markdown fences) are repaired.
// Payloads that end before every string, object and array is closed are
// rejected with ErrMalformedArguments rather than completed.
func ParseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	fixed, err := util.RepairJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(fixed), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
