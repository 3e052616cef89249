// Package modelmesh routes provider agnostic AI requests (chat, completion,
// image) to interchangeable backend adapters selected by declarative criteria
// rather than hardcoded branching. Most applications interact with this
// package by:
//  1. Declaring adapters and the criteria they offer in a decision.Tree
//  2. Creating a Router via New()
//  3. Building requests (Chat, Completion, Image) that state what they need
//  4. Executing them directly or through Converse to run tool round trips
//
// The Router delegates adapter selection to the decision tree and tool
// execution to tool.Executor while keeping request construction concise.
package modelmesh

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/decision"
	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/model"
	"github.com/hupe1980/modelmesh/stream"
	"github.com/hupe1980/modelmesh/tool"
)

// DefaultMaxToolRounds bounds Converse when no limit is configured.
const DefaultMaxToolRounds = 8

// Options configures the Router.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// MaxToolRounds limits how many times Converse feeds tool results back
	// to the model. Set to 0 for unlimited (not recommended).
	MaxToolRounds int

	// LogToolStart logs tool.call.start at info level.
	LogToolStart bool
}

// Router is the high-level façade binding request builders to a decision tree.
type Router struct {
	opts     Options
	tree     *decision.Tree
	executor *tool.Executor
}

// New creates a Router that selects adapters with tree.
func New(tree *decision.Tree, optFns ...func(o *Options)) *Router {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxToolRounds: DefaultMaxToolRounds,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	executor := tool.NewExecutor(func(o *tool.ExecutorOptions) {
		o.Logger = opts.Logger
		o.LogStartEvents = opts.LogToolStart
	})

	return &Router{opts: opts, tree: tree, executor: executor}
}

// Chat starts a chat request.
func (r *Router) Chat() *model.Builder {
	return model.NewBuilder(model.KindChat, r.handle)
}

// Completion starts a text completion request.
func (r *Router) Completion(prompt string) *model.Builder {
	return model.NewBuilder(model.KindCompletion, r.handle).Prompt(prompt)
}

// Image starts an image generation request.
func (r *Router) Image(prompt string) *model.Builder {
	return model.NewBuilder(model.KindImage, r.handle).Prompt(prompt)
}

// Handle routes req to an adapter without changing the request's own handler.
func (r *Router) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	return r.handle(ctx, req)
}

func (r *Router) handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	if r.tree == nil {
		return nil, &decision.NoAdapterFoundError{Criteria: req.Criteria(), Kind: req.Kind()}
	}

	rule, adapter, err := r.tree.DetermineRule(req)
	if err != nil {
		r.opts.Logger.Warn("router.adapter.not_found", "request_id", req.ID(), "criteria", req.Criteria().String())
		return nil, err
	}
	name := model.AdapterName(adapter)
	r.opts.Logger.Debug("router.adapter.selected", "request_id", req.ID(), "adapter", name, "rule", rule)

	prepared, err := model.PrepareFormat(req, adapter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := adapter.Handle(ctx, prepared)
	dur := time.Since(start)

	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if sl, ok := r.opts.Logger.(*logging.StructuredLogger); ok {
		sl.WithRequest(req.ID()).WithAdapter(name).LogAdapterCall(tokens, dur, err)
	} else if err != nil {
		r.opts.Logger.Error("adapter.call.error", "request_id", req.ID(), "adapter", name, "duration_ms", dur.Milliseconds(), "error", err.Error())
	} else {
		r.opts.Logger.Info("adapter.call.success", "request_id", req.ID(), "adapter", name, "duration_ms", dur.Milliseconds())
	}

	if err != nil {
		return nil, fmt.Errorf("modelmesh: adapter %s: %w", name, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("modelmesh: adapter %s returned no response", name)
	}
	if resp.Adapter == "" {
		resp.Adapter = name
	}

	if req.Options().Streamed && !resp.IsStreamed() {
		wrapped := model.NewStreamResponse(stream.FromMessage(resp.Message()))
		wrapped.ID, wrapped.Adapter, wrapped.FinishReason, wrapped.Usage = resp.ID, resp.Adapter, resp.FinishReason, resp.Usage
		resp = wrapped
	}

	return resp, nil
}

// ExecuteTool runs a single tool call against the tools registered on req.
func (r *Router) ExecuteTool(ctx context.Context, req *model.Request, call core.ToolCall) (core.Message, error) {
	return r.executor.Execute(ctx, req.Tools(), call)
}

// Converse executes req and, while the model answers with tool calls, runs
// the tools and feeds the assistant message plus the tool results back in a
// new request. Streamed responses are collected before tools are dispatched.
// The final response and the complete conversation are returned.
func (r *Router) Converse(ctx context.Context, req *model.Request) (*model.Response, []core.Message, error) {
	limiter := NewRoundLimiter(r.opts.MaxToolRounds)
	current := req

	for {
		resp, err := current.Execute(ctx)
		if err != nil {
			return nil, current.Messages(), err
		}

		msg, err := resp.Collect()
		if err != nil {
			return resp, current.Messages(), err
		}

		if !msg.HasToolCalls() {
			return resp, append(current.Messages(), msg), nil
		}

		if err := limiter.Increment(); err != nil {
			r.opts.Logger.Warn("router.tool_rounds.exceeded", "request_id", req.ID(), "rounds", limiter.Count()-1)
			return resp, append(current.Messages(), msg), err
		}

		results, err := r.executor.ExecuteAll(ctx, current.Tools(), msg.ToolCalls())
		if err != nil {
			return resp, append(append(current.Messages(), msg), results...), err
		}

		r.opts.Logger.Debug("router.tool_round", "request_id", req.ID(), "round", limiter.Count(), "remaining", limiter.Remaining(), "calls", len(results))
		current = current.WithMessages(append([]core.Message{msg}, results...)...)
	}
}
