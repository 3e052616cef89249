package tool

import (
	"encoding/json"
	"fmt"
	"reflect"

	invopop "github.com/invopop/jsonschema"

	"github.com/hupe1980/modelmesh/internal/util"
)

// Param is the statically declared descriptor of one callable parameter.
// A parameter without a default is required.
type Param struct {
	Name        string
	Type        reflect.Type
	Description string
	ItemType    JSONType // optional override of the array element type
	Default     any
	HasDefault  bool
}

// ParamOption customizes a Param declared with Arg.
type ParamOption func(p *Param)

// WithDescription sets the parameter description.
func WithDescription(desc string) ParamOption {
	return func(p *Param) { p.Description = desc }
}

// WithDefault marks the parameter optional and sets the value used when the
// model omits it.
func WithDefault(v any) ParamOption {
	return func(p *Param) {
		p.Default = v
		p.HasDefault = true
	}
}

// Optional marks the parameter optional without a default value.
func Optional() ParamOption {
	return func(p *Param) { p.HasDefault = true }
}

// WithItems sets the JSON element type of an array parameter.
func WithItems(t JSONType) ParamOption {
	return func(p *Param) { p.ItemType = t }
}

// Arg declares a parameter of Go type T.
//
//	tool.Arg[string]("city", tool.WithDescription("City name"))
//	tool.Arg[[]string]("tags", tool.WithItems(tool.TypeString), tool.Optional())
func Arg[T any](name string, opts ...ParamOption) Param {
	p := Param{Name: name, Type: reflect.TypeFor[T]()}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ParamsOf derives parameter descriptors from the exported fields of struct T,
// in declaration order. Recognized tags:
//
//	json        parameter name ("-" skips the field, omitempty makes it optional)
//	description parameter description
//	default     default value (JSON literal, or raw text for string fields)
//	items       array element type
//
// Descriptions and defaults declared with jsonschema tags
// (jsonschema:"description=...,default=..." or jsonschema_description) are
// used when the plain tags are absent. Pointer fields are optional.
func ParamsOf[T any]() ([]Param, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool: argument type %s is not a struct", t)
	}

	hints := fieldHints(t)
	params := make([]Param, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := util.FieldName(field)
		if name == "" {
			continue
		}

		p := Param{
			Name:        name,
			Type:        field.Type,
			Description: field.Tag.Get("description"),
			ItemType:    JSONType(field.Tag.Get("items")),
		}
		hint := hints[name]
		if p.Description == "" && hint != nil {
			p.Description = hint.Description
		}

		if def, ok := field.Tag.Lookup("default"); ok {
			v, err := parseDefault(field.Type, def)
			if err != nil {
				return nil, fmt.Errorf("tool: default of %s: %w", name, err)
			}
			p.Default = v
			p.HasDefault = true
		} else if hint != nil && hint.Default != nil {
			v, err := jsonValue(hint.Default)
			if err != nil {
				return nil, fmt.Errorf("tool: default of %s: %w", name, err)
			}
			p.Default = v
			p.HasDefault = true
		} else if util.HasOmitEmpty(field.Tag.Get("json")) || field.Type.Kind() == reflect.Pointer {
			p.HasDefault = true
		}

		params = append(params, p)
	}
	return params, nil
}

func parseDefault(t reflect.Type, raw string) (any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.String {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// fieldHints reflects t with the jsonschema reflector and returns the property
// schemas keyed by JSON name. Types the reflector cannot handle yield no hints.
func fieldHints(t reflect.Type) (hints map[string]*invopop.Schema) {
	hints = map[string]*invopop.Schema{}
	defer func() {
		if recover() != nil {
			hints = map[string]*invopop.Schema{}
		}
	}()

	r := &invopop.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := r.ReflectFromType(t)
	if schema == nil || schema.Properties == nil {
		return hints
	}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		hints[pair.Key] = pair.Value
	}
	return hints
}

// jsonValue normalizes v to the shape encoding/json produces (numbers as float64).
func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
