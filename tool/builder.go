package tool

import (
	"reflect"
	"regexp"
	"strings"
)

// BuildInfo converts a callable's declared parameters and documentation into a
// ToolInfo. Parameters keep their declaration order; Required holds those
// without a default. The description is the free-form part of doc.
//
// Array element types come, in order of precedence, from the parameter's
// ItemType, an "@param" annotation in doc naming the parameter, or the Go
// element type. Unresolvable element types are left nil.
func BuildInfo(name, doc string, params []Param) (ToolInfo, error) {
	annotations := paramAnnotations(doc)

	info := ToolInfo{
		Type:        InfoFunction,
		Name:        name,
		Description: CleanDoc(doc),
		Parameters:  make([]Parameter, 0, len(params)),
	}

	for _, p := range params {
		jt, ok := jsonTypeOf(p.Type)
		if !ok {
			return ToolInfo{}, &UnsupportedParameterTypeError{Tool: name, Param: p.Name, Type: p.Type}
		}

		param := Parameter{Name: p.Name, Type: jt, Description: p.Description}
		if jt == TypeArray {
			param.ItemType = resolveItemType(p, annotations)
		}
		info.Parameters = append(info.Parameters, param)
	}

	for i, p := range params {
		if !p.HasDefault {
			info.Required = append(info.Required, info.Parameters[i])
		}
	}
	return info, nil
}

func jsonTypeOf(t reflect.Type) (JSONType, bool) {
	if t == nil {
		return "", false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber, true
	case reflect.Bool:
		return TypeBoolean, true
	case reflect.Slice, reflect.Array:
		return TypeArray, true
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return TypeObject, true
		}
	}
	return "", false
}

func resolveItemType(p Param, annotations map[string]string) *JSONType {
	if p.ItemType != "" {
		it := p.ItemType
		return &it
	}
	if ann, ok := annotations[p.Name]; ok {
		if it, ok := itemTypeFromAnnotation(ann); ok {
			return &it
		}
	}
	t := p.Type
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if jt, ok := jsonTypeOf(t.Elem()); ok {
		return &jt
	}
	return nil
}

var paramTagRe = regexp.MustCompile(`@param\s+(\S+)\s+\$?([A-Za-z_][A-Za-z0-9_]*)`)

// paramAnnotations maps parameter names to the type token of their @param tag.
func paramAnnotations(doc string) map[string]string {
	out := map[string]string{}
	for _, m := range paramTagRe.FindAllStringSubmatch(doc, -1) {
		out[m[2]] = m[1]
	}
	return out
}

var scalarAliases = map[string]JSONType{
	"string":  TypeString,
	"int":     TypeNumber,
	"integer": TypeNumber,
	"float":   TypeNumber,
	"float64": TypeNumber,
	"number":  TypeNumber,
	"bool":    TypeBoolean,
	"boolean": TypeBoolean,
	"array":   TypeArray,
	"object":  TypeObject,
}

// itemTypeFromAnnotation understands "string[]", "[]string" and "array<string>".
func itemTypeFromAnnotation(token string) (JSONType, bool) {
	token = strings.ToLower(token)
	var elem string
	switch {
	case strings.HasSuffix(token, "[]"):
		elem = strings.TrimSuffix(token, "[]")
	case strings.HasPrefix(token, "[]"):
		elem = strings.TrimPrefix(token, "[]")
	case strings.HasPrefix(token, "array<") && strings.HasSuffix(token, ">"):
		elem = token[len("array<") : len(token)-1]
	default:
		return "", false
	}
	jt, ok := scalarAliases[elem]
	return jt, ok
}

// CleanDoc returns the free-form text of a documentation comment: comment
// markers are trimmed, "@tag" lines dropped and surrounding blank lines removed.
func CleanDoc(doc string) string {
	lines := strings.Split(doc, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		l = strings.TrimPrefix(l, "/**")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "@") {
			continue
		}
		kept = append(kept, l)
	}

	start, end := 0, len(kept)
	for start < end && kept[start] == "" {
		start++
	}
	for end > start && kept[end-1] == "" {
		end--
	}
	return strings.Join(kept[start:end], "\n")
}
