package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/logging"
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Logger receives tool.call.* records (defaults to NoOpLogger).
	Logger logging.Logger
	// LogStartEvents logs a start line per call at info level instead of debug.
	LogStartEvents bool
}

// Executor resolves model-issued tool calls against a registry, invokes the
// matching tool and wraps the result as a tool message. Calls are never
// retried; the first failure is returned to the caller.
type Executor struct {
	opts ExecutorOptions
}

// NewExecutor creates an Executor.
func NewExecutor(optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Executor{opts: opts}
}

// Execute runs a single tool call and returns the tool result message.
//
// Error Semantics:
//
//	unknown tool               -> *NotFoundError
//	binding / execution error  -> *InvocationError (CallID populated)
//	panic inside the tool      -> *InvocationError{Code: "PANIC"}
//
// Logging Fields:
//
//	tool: tool name
//	call_id: tool call identifier (correlates model request & tool execution)
//	duration_ms: execution time in milliseconds
func (e *Executor) Execute(ctx context.Context, registry *Registry, call core.ToolCall) (core.Message, error) {
	logger := e.opts.Logger

	impl, ok := registry.Get(call.Name)
	if !ok {
		logger.Warn("tool.call.not_found", "tool", call.Name, "call_id", call.ID)
		return core.Message{}, &NotFoundError{Name: call.Name}
	}

	if e.opts.LogStartEvents {
		logger.Info("tool.call.start", "tool", call.Name, "call_id", call.ID)
	} else {
		logger.Debug("tool.call.start", "tool", call.Name, "call_id", call.ID)
	}

	callCtx := WithCallInfo(ctx, CallInfo{ID: call.ID, Name: call.Name, Logger: logger})
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	result, err := invoke(callCtx, impl, call.Name, args)
	dur := time.Since(start)

	if err != nil {
		var invErr *InvocationError
		if errors.As(err, &invErr) {
			if invErr.CallID == "" {
				invErr.CallID = call.ID
			}
			err = invErr
		} else {
			err = &InvocationError{Tool: call.Name, CallID: call.ID, Code: CodeExecution, Message: err.Error(), Err: err}
		}
		e.logCall(call, dur, err)
		return core.Message{}, err
	}

	content, err := Stringify(result)
	if err != nil {
		err = &InvocationError{
			Tool:    call.Name,
			CallID:  call.ID,
			Code:    CodeExecution,
			Message: fmt.Sprintf("cannot stringify result: %v", err),
			Err:     err,
		}
		e.logCall(call, dur, err)
		return core.Message{}, err
	}

	e.logCall(call, dur, nil)

	return core.NewToolMessage(call.ID, call.Name, content), nil
}

// toolCallLogger is implemented by loggers with a dedicated tool helper
// (logging.StructuredLogger).
type toolCallLogger interface {
	LogToolCall(tool, callID string, dur time.Duration, err error)
}

func (e *Executor) logCall(call core.ToolCall, dur time.Duration, err error) {
	if l, ok := e.opts.Logger.(toolCallLogger); ok {
		l.LogToolCall(call.Name, call.ID, dur, err)
		return
	}
	if err != nil {
		e.opts.Logger.Error("tool.call.error", "tool", call.Name, "call_id", call.ID, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	e.opts.Logger.Info("tool.call.success", "tool", call.Name, "call_id", call.ID, "duration_ms", dur.Milliseconds())
}

// ExecuteAll runs calls sequentially in order and stops at the first error.
// Messages produced before the failure are returned alongside it.
func (e *Executor) ExecuteAll(ctx context.Context, registry *Registry, calls []core.ToolCall) ([]core.Message, error) {
	out := make([]core.Message, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		msg, err := e.Execute(ctx, registry, call)
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// invoke calls the tool converting a panic into an InvocationError.
func invoke(ctx context.Context, impl Tool, name string, args map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{
				Tool:    name,
				Code:    CodePanic,
				Message: fmt.Sprintf("panic recovered: %v", r),
				Err:     &panicErr{val: r, stack: debug.Stack()},
			}
		}
	}()
	return impl.Call(ctx, args)
}

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic: %v", p.val) }

// Stringify converts a tool result to the text content of a tool message.
// Strings pass through; fmt.Stringer and []byte are rendered directly and
// everything else is JSON encoded.
func Stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case json.RawMessage:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
