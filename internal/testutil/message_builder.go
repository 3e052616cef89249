package testutil

import (
	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/stream"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().Text("checking").ToolCall("c1", "weather", `{"city":"Berlin"}`).Build()
//
// Chain only the parts you need; the role defaults to assistant.
type MessageBuilder struct {
	role  core.Role
	text  string
	calls []core.ToolCall
	parts []core.Part
	err   error
}

// NewMessageBuilder creates a builder with default role assistant.
func NewMessageBuilder() *MessageBuilder { return &MessageBuilder{role: core.RoleAssistant} }

// Role sets the message role (chainable).
func (b *MessageBuilder) Role(r core.Role) *MessageBuilder { b.role = r; return b }

// Text appends text content (chainable).
func (b *MessageBuilder) Text(t string) *MessageBuilder { b.text += t; return b }

// ToolCall adds a tool call with JSON encoded arguments (chainable).
// Malformed arguments surface as a panic in Build.
func (b *MessageBuilder) ToolCall(id, name, args string) *MessageBuilder {
	parsed, err := core.ParseArguments(args)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.calls = append(b.calls, core.NewToolCall(id, name, parsed))
	return b
}

// Image adds an image part referenced by URL (chainable).
func (b *MessageBuilder) Image(url string) *MessageBuilder {
	b.parts = append(b.parts, core.ImagePart{URL: url})
	return b
}

// Build finalizes and returns the message.
func (b *MessageBuilder) Build() core.Message {
	if b.err != nil {
		panic(b.err)
	}
	parts := append([]core.Part{}, b.parts...)
	if len(b.calls) > 0 {
		parts = append(parts, core.ToolCallsPart{Calls: append([]core.ToolCall{}, b.calls...)})
	}
	return core.Message{Role: b.role, Content: b.text, Parts: parts}
}

// TextFragments returns one content fragment per chunk.
func TextFragments(chunks ...string) []stream.Fragment {
	out := make([]stream.Fragment, len(chunks))
	for i, c := range chunks {
		out[i] = stream.Fragment{Content: c}
	}
	return out
}

// ToolCallFragments splits the arguments of a tool call into n deltas at the
// given index. Only the first delta carries the id and name.
func ToolCallFragments(index int, id, name, args string, n int) []stream.Fragment {
	if n < 1 {
		n = 1
	}
	size := (len(args) + n - 1) / n
	var out []stream.Fragment
	for i := 0; i < n; i++ {
		lo, hi := min(i*size, len(args)), min((i+1)*size, len(args))
		d := stream.ToolCallDelta{Index: index, Arguments: args[lo:hi]}
		if i == 0 {
			d.ID, d.Name = id, name
		}
		out = append(out, stream.Fragment{ToolCalls: []stream.ToolCallDelta{d}})
	}
	return out
}
