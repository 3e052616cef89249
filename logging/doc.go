// Package logging provides a minimal logging interface and adapters for ModelMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the router, decision tree and tool executor use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with request/adapter scoped attributes
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	router := modelmesh.New(tree, func(o *modelmesh.Options) { o.Logger = logger })
//
// Event names are dotted (routing.match, adapter.call.success, tool.call.error)
// so they can be filtered without parsing messages.
package logging
