package model

import (
	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/stream"
)

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the result of executing a request. It either wraps a complete
// message or a fragment stream.
type Response struct {
	ID           string
	Adapter      string
	FinishReason string
	Usage        *TokenUsage

	message core.Message
	stream  *stream.Stream
}

// NewResponse wraps a complete message.
func NewResponse(msg core.Message) *Response {
	return &Response{ID: core.NewID(), message: msg}
}

// NewStreamResponse wraps a fragment stream.
func NewStreamResponse(s *stream.Stream) *Response {
	return &Response{ID: core.NewID(), stream: s}
}

// IsStreamed reports whether the response wraps a stream.
func (r *Response) IsStreamed() bool { return r.stream != nil }

// Stream returns the fragment stream, or nil for non-streamed responses.
func (r *Response) Stream() *stream.Stream { return r.stream }

// Message returns the message. For streamed responses it is the aggregate of
// the fragments consumed so far.
func (r *Response) Message() core.Message {
	if r.stream != nil {
		return r.stream.Message()
	}
	return r.message
}

// Collect drains a streamed response and returns the final message.
func (r *Response) Collect() (core.Message, error) {
	if r.stream == nil {
		return r.message, nil
	}
	msg, err := r.stream.Collect()
	if err != nil {
		return msg, err
	}
	if r.FinishReason == "" {
		r.FinishReason = r.stream.FinishReason()
	}
	return msg, nil
}

// ToolCalls returns the tool calls of the (aggregated) message.
func (r *Response) ToolCalls() []core.ToolCall { return r.Message().ToolCalls() }

// HasToolCalls reports whether the model asked for tool invocations.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls()) > 0 }
