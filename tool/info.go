package tool

import "encoding/json"

// JSONType is a JSON schema primitive type name.
type JSONType string

const (
	TypeString  JSONType = "string"
	TypeNumber  JSONType = "number"
	TypeBoolean JSONType = "boolean"
	TypeArray   JSONType = "array"
	TypeObject  JSONType = "object"
)

// InfoType is the kind of an invocable schema. Only functions exist today.
type InfoType string

// InfoFunction marks a function schema.
const InfoFunction InfoType = "function"

// Parameter describes one argument of a tool.
type Parameter struct {
	Name        string
	Type        JSONType
	Description string
	ItemType    *JSONType // element type for arrays, nil when unresolved
}

// ToolInfo is the invocation schema of a tool. Required always holds a subset
// of Parameters in parameter order.
type ToolInfo struct {
	Type        InfoType
	Name        string
	Description string
	Parameters  []Parameter
	Required    []Parameter
}

// RequiredNames returns the names of the required parameters, in order.
func (ti ToolInfo) RequiredNames() []string {
	names := make([]string, len(ti.Required))
	for i, p := range ti.Required {
		names[i] = p.Name
	}
	return names
}

// Schema returns the JSON schema object describing the tool parameters.
func (ti ToolInfo) Schema() map[string]any {
	props := make(map[string]any, len(ti.Parameters))
	for _, p := range ti.Parameters {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == TypeArray && p.ItemType != nil {
			prop["items"] = map[string]any{"type": string(*p.ItemType)}
		}
		props[p.Name] = prop
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   ti.RequiredNames(),
	}
}

// MarshalJSON emits the OpenAI function-calling compatible schema.
func (ti ToolInfo) MarshalJSON() ([]byte, error) {
	typ := ti.Type
	if typ == "" {
		typ = InfoFunction
	}
	return json.Marshal(map[string]any{
		"type": string(typ),
		"function": map[string]any{
			"name":        ti.Name,
			"description": ti.Description,
			"parameters":  ti.Schema(),
		},
	})
}
