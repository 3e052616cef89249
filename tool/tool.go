// Package tool implements the function / tool calling subsystem: it describes
// Go callables as invocable schemas (ToolInfo), keeps them in a Registry and
// executes model-issued tool calls against them with validated arguments,
// consistent error handling and result wrapping.
package tool

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Arguments is the bound argument map handed to a tool implementation.
type Arguments map[string]any

// Tool defines a callable exposed to a model.
//
// Tool implementations should:
//   - Provide a unique, descriptive name (snake_case recommended)
//   - Describe their parameters through Info so models can call them
//   - Be safe for concurrent use if shared across requests
type Tool interface {
	// Info returns the invocation schema of the tool.
	Info() ToolInfo

	// Call invokes the tool with raw model supplied arguments. Implementations
	// bind and validate the arguments before running.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Sentinel errors. Use errors.Is to check.
var (
	ErrToolNotFound             = errors.New("tool not found")
	ErrInvocation               = errors.New("tool invocation failed")
	ErrUnsupportedParameterType = errors.New("unsupported parameter type")
	ErrDuplicateTool            = errors.New("tool already registered")
)

// Error codes carried by InvocationError.
const (
	CodeMissingArgument = "MISSING_ARGUMENT"
	CodeValidation      = "VALIDATION_ERROR"
	CodeExecution       = "EXECUTION_ERROR"
	CodePanic           = "PANIC"
)

// NotFoundError is returned when a tool call names a tool that is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}

// Unwrap supports errors.Is(err, ErrToolNotFound).
func (e *NotFoundError) Unwrap() error { return ErrToolNotFound }

// InvocationError represents a failure to bind arguments to, or to run, a tool.
type InvocationError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	CallID  string `json:"call_id,omitempty"` // Originating tool call id, when known
	Code    string `json:"code"`              // Error code for categorization
	Message string `json:"message"`           // Error message
	Err     error  `json:"-"`                 // Underlying cause
}

func (e *InvocationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes both ErrInvocation and the underlying cause.
func (e *InvocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvocation}
	}
	return []error{ErrInvocation, e.Err}
}

// UnsupportedParameterTypeError is returned at registration time when a
// parameter's Go type has no schema mapping.
type UnsupportedParameterTypeError struct {
	Tool  string
	Param string
	Type  reflect.Type
}

func (e *UnsupportedParameterTypeError) Error() string {
	typ := "<nil>"
	if e.Type != nil {
		typ = e.Type.String()
	}
	return fmt.Sprintf("tool %s: parameter %q has unsupported type %s", e.Tool, e.Param, typ)
}

// Unwrap supports errors.Is(err, ErrUnsupportedParameterType).
func (e *UnsupportedParameterTypeError) Unwrap() error { return ErrUnsupportedParameterType }

func validName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, " \t\n")
}
