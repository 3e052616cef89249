package tool

import "fmt"

// Registry holds the tools available to a request, keyed by name and kept in
// registration order. A registry owned by a built request is never mutated.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: map[string]Tool{}}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool: cannot register nil tool")
	}
	name := t.Info().Name
	if !validName(name) {
		return fmt.Errorf("tool: invalid name %q", name)
	}
	if r.tools == nil {
		r.tools = map[string]Tool{}
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

// Infos returns the schemas of all tools in registration order.
func (r *Registry) Infos() []ToolInfo {
	if r == nil {
		return nil
	}
	infos := make([]ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.tools[name].Info())
	}
	return infos
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Clone returns an independent copy sharing the tool values.
func (r *Registry) Clone() *Registry {
	c := &Registry{tools: map[string]Tool{}}
	if r == nil {
		return c
	}
	for _, name := range r.order {
		c.tools[name] = r.tools[name]
		c.order = append(c.order, name)
	}
	return c
}
