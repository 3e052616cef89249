package model

import "context"

// Adapter serves requests against one backend provider.
type Adapter interface {
	// Supports vetoes requests whose shape the adapter cannot serve
	// (for example image requests on a chat-only backend).
	Supports(req *Request) bool
	// Handle executes the request. Streamed requests may be answered with
	// either a stream or a single response.
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// FormatSupporter is implemented by adapters that can enforce output formats
// natively. Adapters not implementing it are assumed to honor FormatJSON and
// to need structured output injected as an instruction.
type FormatSupporter interface {
	SupportsFormat(f Format) bool
	SupportsResponseFormat() bool
}

// Namer is implemented by adapters that expose a name for logging.
type Namer interface {
	Name() string
}

// AdapterName returns the adapter's name, or its type when it has none.
func AdapterName(a Adapter) string {
	if n, ok := a.(Namer); ok {
		return n.Name()
	}
	return typeName(a)
}
