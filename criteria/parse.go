package criteria

import (
	"fmt"
	"strings"
)

// ParseError reports a criteria declaration that could not be resolved.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("criteria: cannot parse %q: %s", e.Input, e.Reason)
}

// Parse resolves a "kind:name" declaration (case-insensitive) to a predefined criteria.
func Parse(s string) (Criteria, error) {
	raw := strings.TrimSpace(s)
	kind, name, ok := strings.Cut(strings.ToLower(raw), ":")
	if !ok || kind == "" || name == "" {
		return Criteria{}, &ParseError{Input: s, Reason: "expected kind:name"}
	}

	if _, known := strategies[Kind(kind)]; !known {
		return Criteria{}, &ParseError{Input: s, Reason: fmt.Sprintf("unknown kind %q", kind)}
	}

	for _, c := range known {
		if string(c.kind) == kind && c.name == name {
			return c, nil
		}
	}
	return Criteria{}, &ParseError{Input: s, Reason: fmt.Sprintf("unknown %s %q", kind, name)}
}

// ParseAll resolves every declaration, failing on the first invalid one.
func ParseAll(decls []string) ([]Criteria, error) {
	out := make([]Criteria, 0, len(decls))
	for _, d := range decls {
		c, err := Parse(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
