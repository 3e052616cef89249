package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/hupe1980/modelmesh/internal/util"
)

// Function is a generic adapter that exposes a plain Go function as a Tool.
//
// Responsibilities:
//   - Holds the ToolInfo built from explicit parameter descriptors
//   - Binds model supplied arguments onto the declared parameters (unknown keys
//     dropped, defaults filled, missing required arguments rejected)
//   - Validates the bound arguments against the compiled parameter schema
//   - Normalizes failures into *InvocationError with consistent codes:
//     MISSING_ARGUMENT  -> a required argument is absent
//     VALIDATION_ERROR  -> schema / type mismatch
//     EXECUTION_ERROR   -> underlying function returned an error
//
// A Function has no mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type Function struct {
	info   ToolInfo
	params []Param
	schema *jsonschema.Schema
	fn     func(ctx context.Context, args Arguments) (any, error)
}

// NewDynamic constructs a Function from explicit descriptors and an untyped
// implementation.
//
// Example:
//
//	echo, err := tool.NewDynamic(
//	  "echo",
//	  "Echo the given text back.",
//	  []tool.Param{tool.Arg[string]("text")},
//	  func(ctx context.Context, args tool.Arguments) (any, error) {
//	    return args["text"], nil
//	  },
//	)
func NewDynamic(
	name, doc string,
	params []Param,
	fn func(ctx context.Context, args Arguments) (any, error),
) (*Function, error) {
	if !validName(name) {
		return nil, fmt.Errorf("tool: invalid name %q", name)
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: nil function", name)
	}

	info, err := BuildInfo(name, doc, params)
	if err != nil {
		return nil, err
	}

	schema, err := util.CompileSchema(name, info.Schema())
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return &Function{info: info, params: params, schema: schema, fn: fn}, nil
}

// New constructs a Function whose arguments are described by struct T (see
// ParamsOf). Bound arguments are decoded into T before fn runs.
//
// Example:
//
//	type WeatherArgs struct {
//	  City string `json:"city" description:"City name"`
//	  Unit string `json:"unit" default:"celsius"`
//	}
//
//	weather, err := tool.New("weather", "Current weather for a city.",
//	  func(ctx context.Context, args WeatherArgs) (string, error) {
//	    return lookup(ctx, args.City, args.Unit)
//	  },
//	)
func New[T, R any](name, doc string, fn func(ctx context.Context, args T) (R, error)) (*Function, error) {
	params, err := ParamsOf[T]()
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: nil function", name)
	}

	return NewDynamic(name, doc, params, func(ctx context.Context, args Arguments) (any, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, &InvocationError{Tool: name, Code: CodeValidation, Message: err.Error(), Err: err}
		}
		var typed T
		if err := json.Unmarshal(data, &typed); err != nil {
			return nil, &InvocationError{
				Tool:    name,
				Code:    CodeValidation,
				Message: fmt.Sprintf("cannot decode arguments: %v", err),
				Err:     err,
			}
		}
		return fn(ctx, typed)
	})
}

// Info returns the invocation schema.
func (f *Function) Info() ToolInfo { return f.info }

// Call binds and validates args, then invokes the wrapped function.
func (f *Function) Call(ctx context.Context, args map[string]any) (any, error) {
	bound, err := f.bind(args)
	if err != nil {
		return nil, err
	}

	result, err := f.fn(ctx, bound)
	if err != nil {
		var invErr *InvocationError
		if errors.As(err, &invErr) {
			return nil, invErr
		}
		return nil, &InvocationError{Tool: f.info.Name, Code: CodeExecution, Message: err.Error(), Err: err}
	}
	return result, nil
}

// bind maps raw arguments onto the declared parameters.
func (f *Function) bind(args map[string]any) (Arguments, error) {
	bound := make(Arguments, len(f.params))
	for _, p := range f.params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if !p.HasDefault {
				return nil, &InvocationError{
					Tool:    f.info.Name,
					Code:    CodeMissingArgument,
					Message: fmt.Sprintf("missing required argument %q", p.Name),
				}
			}
			if p.Default != nil {
				bound[p.Name] = p.Default
			}
			continue
		}
		bound[p.Name] = v
	}

	if err := util.ValidateValue(f.schema, map[string]any(bound)); err != nil {
		return nil, &InvocationError{
			Tool:    f.info.Name,
			Code:    CodeValidation,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Err:     err,
		}
	}
	return bound, nil
}
