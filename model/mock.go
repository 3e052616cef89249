package model

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/stream"
)

// MockAdapter is a lightweight in-memory Adapter useful for tests & examples.
// Replies come from a script queue first, then from canned prompt responses,
// and finally echo the input.
type MockAdapter struct {
	name  string
	kinds []Kind

	mu        sync.Mutex
	responses map[string]string
	script    []core.Message
	requests  []*Request
	err       error
}

// NewMockAdapter constructs a MockAdapter serving the given kinds (chat and
// completion when none are given).
func NewMockAdapter(name string, kinds ...Kind) *MockAdapter {
	if len(kinds) == 0 {
		kinds = []Kind{KindChat, KindCompletion}
	}
	return &MockAdapter{name: name, kinds: kinds, responses: map[string]string{}}
}

// Name returns the adapter name.
func (m *MockAdapter) Name() string { return m.name }

// AddResponse registers a deterministic canned reply for an input text.
func (m *MockAdapter) AddResponse(input, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = response
}

// Enqueue appends scripted replies. Each Handle call consumes one.
func (m *MockAdapter) Enqueue(msgs ...core.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, msgs...)
}

// FailWith makes subsequent Handle calls return err.
func (m *MockAdapter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns the requests handled so far.
func (m *MockAdapter) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Supports implements Adapter.
func (m *MockAdapter) Supports(req *Request) bool { return slices.Contains(m.kinds, req.Kind()) }

// Handle implements Adapter; streamed requests receive one fragment per rune.
func (m *MockAdapter) Handle(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return nil, err
	}
	var reply core.Message
	if len(m.script) > 0 {
		reply = m.script[0]
		m.script = m.script[1:]
	} else {
		reply = m.reply(req)
	}
	m.mu.Unlock()

	finish := "stop"
	if reply.HasToolCalls() {
		finish = "tool_calls"
	}

	var resp *Response
	if req.Options().Streamed {
		resp = NewStreamResponse(stream.New(fragments(ctx, reply, finish)))
	} else {
		resp = NewResponse(reply)
		resp.FinishReason = finish
	}
	resp.Adapter = m.name
	return resp, nil
}

func (m *MockAdapter) reply(req *Request) core.Message {
	input := lastInput(req)
	if req.Kind() == KindImage {
		return core.NewAssistantMessage(input, core.ImagePart{URL: "https://mock.local/images/" + req.ID() + ".png"})
	}
	full, ok := m.responses[input]
	if !ok {
		full = fmt.Sprintf("Mock response to: %s", input)
	}
	return core.NewAssistantMessage(full)
}

func lastInput(req *Request) string {
	if req.Kind() != KindChat {
		return req.Prompt()
	}
	msgs := req.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser || msgs[i].Role == core.RoleTool {
			return msgs[i].Content
		}
	}
	return ""
}

// fragments splits a message into per-rune content fragments, one fragment
// per image part and tool call deltas whose arguments arrive in two halves.
func fragments(ctx context.Context, msg core.Message, finish string) func(yield func(stream.Fragment, error) bool) {
	return func(yield func(stream.Fragment, error) bool) {
		for _, r := range msg.Content {
			if err := ctx.Err(); err != nil {
				yield(stream.Fragment{}, err)
				return
			}
			if !yield(stream.Fragment{Role: core.RoleAssistant, Content: string(r)}, nil) {
				return
			}
		}
		for _, p := range msg.Parts {
			if _, ok := p.(core.ToolCallsPart); ok {
				continue
			}
			if !yield(stream.Fragment{Parts: []core.Part{p}}, nil) {
				return
			}
		}
		for i, tc := range msg.ToolCalls() {
			args, err := tc.ArgumentsJSON()
			if err != nil {
				yield(stream.Fragment{}, err)
				return
			}
			half := len(args) / 2
			if !yield(stream.Fragment{ToolCalls: []stream.ToolCallDelta{{Index: i, ID: tc.ID, Name: tc.Name, Arguments: args[:half]}}}, nil) {
				return
			}
			if !yield(stream.Fragment{ToolCalls: []stream.ToolCallDelta{{Index: i, Arguments: args[half:]}}}, nil) {
				return
			}
		}
		yield(stream.Fragment{FinishReason: finish}, nil)
	}
}
