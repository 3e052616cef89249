// Package stream turns a lazily produced sequence of partial message fragments
// into a pull-based stream that exposes both the raw fragments and the message
// aggregated from them.
//
// Production and consumption interleave cooperatively: the producer yields one
// fragment, then waits until the consumer pulls the next one. Fragments are
// observed strictly in production order and the sequence is single-pass.
package stream

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/hupe1980/modelmesh/core"
)

// ToolCallDelta is an incremental update to a tool call being streamed.
// Index identifies the call; ID and Name are usually only present on the first
// delta of an index while Arguments carries a JSON fragment.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Fragment is one incremental piece of a streamed message. Parts carries
// complete, non-incremental parts such as generated images; tool calls always
// travel as deltas.
type Fragment struct {
	Role         core.Role       `json:"role,omitempty"`
	Content      string          `json:"content,omitempty"`
	Parts        []core.Part     `json:"-"`
	ToolCalls    []ToolCallDelta `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ConflictError is returned when a fragment carries a tool call id that
// differs from the id already recorded for the same index.
type ConflictError struct {
	Index    int
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stream: tool call index %d already bound to id %q, got %q", e.Index, e.Existing, e.Incoming)
}

// ErrClosed is returned by Next after Close stopped a stream before exhaustion.
var ErrClosed = errors.New("stream: closed")

// ErrInvalidIndex is returned for a tool call delta whose index is negative or
// far beyond the calls seen so far.
var ErrInvalidIndex = errors.New("stream: invalid tool call index")

// maxIndexGap bounds how far a new tool call index may skip ahead.
const maxIndexGap = 16

// Stream is a single-pass, pull-based fragment sequence with an incremental
// aggregate of the message. It is not safe for concurrent use.
type Stream struct {
	next func() (Fragment, error, bool)
	stop func()

	agg    aggregator
	done   bool
	closed bool
	err    error
}

// New wraps a fragment producer. The producer may yield a non-nil error to
// signal a mid-stream failure; it is surfaced by the pull that receives it.
func New(seq iter.Seq2[Fragment, error]) *Stream {
	next, stop := iter.Pull2(seq)
	return &Stream{next: next, stop: stop, agg: newAggregator()}
}

// FromFragments creates a stream replaying the given fragments.
func FromFragments(fragments ...Fragment) *Stream {
	return New(func(yield func(Fragment, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
	})
}

// FromMessage wraps a complete message as a single-fragment stream. Used when
// a streamed request is served by a backend that cannot stream.
func FromMessage(msg core.Message) *Stream {
	f := Fragment{Role: msg.Role, Content: msg.Content}
	for _, p := range msg.Parts {
		if _, ok := p.(core.ToolCallsPart); !ok {
			f.Parts = append(f.Parts, p)
		}
	}
	for i, tc := range msg.ToolCalls() {
		args, err := tc.ArgumentsJSON()
		if err != nil {
			args = "{}"
		}
		f.ToolCalls = append(f.ToolCalls, ToolCallDelta{Index: i, ID: tc.ID, Name: tc.Name, Arguments: args})
	}
	return FromFragments(f)
}

// Next pulls the next fragment and folds it into the aggregate. It returns
// io.EOF once the producer is exhausted; the aggregate is frozen from then on.
func (s *Stream) Next() (Fragment, error) {
	if s.done {
		if s.err != nil {
			return Fragment{}, s.err
		}
		return Fragment{}, io.EOF
	}

	f, err, ok := s.next()
	if !ok {
		s.finish(s.agg.finalize())
		if s.err != nil {
			return Fragment{}, s.err
		}
		return Fragment{}, io.EOF
	}
	if err != nil {
		s.finish(err)
		return Fragment{}, err
	}
	if err := s.agg.add(f); err != nil {
		s.finish(err)
		return Fragment{}, err
	}
	return f, nil
}

// All returns an iterator over the remaining fragments. Because the stream is
// single-pass, ranging over a consumed stream yields nothing. A failing pull
// is yielded as the final element.
func (s *Stream) All() iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		for {
			f, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if !s.closed {
					yield(Fragment{}, err)
				}
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Collect drains the remaining fragments and returns the final message.
func (s *Stream) Collect() (core.Message, error) {
	for {
		_, err := s.Next()
		if errors.Is(err, io.EOF) {
			return s.Message(), nil
		}
		if err != nil {
			return s.Message(), err
		}
	}
}

// Message returns the best-known aggregated message: empty before the first
// pull, partial while consuming and complete after exhaustion.
func (s *Stream) Message() core.Message { return s.agg.message() }

// FinishReason returns the last finish reason reported by the producer.
func (s *Stream) FinishReason() string { return s.agg.finishReason }

// Close stops pulling from the producer. The aggregate keeps what has been
// consumed so far. Closing an exhausted stream is a no-op.
func (s *Stream) Close() {
	if s.done {
		return
	}
	s.closed = true
	s.finish(ErrClosed)
}

// Done reports whether the stream can no longer produce fragments.
func (s *Stream) Done() bool { return s.done }

// Err returns the error that terminated the stream, if any.
func (s *Stream) Err() error { return s.err }

func (s *Stream) finish(err error) {
	s.done = true
	s.err = err
	s.stop()
}

// aggregator incrementally builds the message from consumed fragments.
type aggregator struct {
	role         core.Role
	content      strings.Builder
	parts        []core.Part
	calls        []*callBuilder
	finishReason string
	final        []core.ToolCall
}

type callBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

func newAggregator() aggregator {
	return aggregator{role: core.RoleAssistant}
}

func (a *aggregator) add(f Fragment) error {
	if f.Role != "" {
		a.role = f.Role
	}
	a.content.WriteString(f.Content)
	for _, p := range f.Parts {
		if _, ok := p.(core.ToolCallsPart); ok {
			return fmt.Errorf("stream: tool calls must be sent as deltas")
		}
		a.parts = append(a.parts, p)
	}
	if f.FinishReason != "" {
		a.finishReason = f.FinishReason
	}
	for _, d := range f.ToolCalls {
		if err := a.mergeCall(d); err != nil {
			return err
		}
	}
	return nil
}

func (a *aggregator) mergeCall(d ToolCallDelta) error {
	if d.Index < 0 || d.Index > len(a.calls)+maxIndexGap {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, d.Index)
	}
	for len(a.calls) <= d.Index {
		a.calls = append(a.calls, &callBuilder{})
	}
	b := a.calls[d.Index]

	if d.ID != "" {
		if b.id != "" && b.id != d.ID {
			return &ConflictError{Index: d.Index, Existing: b.id, Incoming: d.ID}
		}
		b.id = d.ID
	}
	if d.Name != "" && b.name == "" {
		b.name = d.Name
	}
	b.arguments.WriteString(d.Arguments)
	return nil
}

// finalize parses the accumulated argument buffers once the producer is exhausted.
func (a *aggregator) finalize() error {
	calls := make([]core.ToolCall, 0, len(a.calls))
	for _, b := range a.calls {
		if b.id == "" && b.name == "" && b.arguments.Len() == 0 {
			continue
		}
		args, err := core.ParseArguments(b.arguments.String())
		if err != nil {
			return fmt.Errorf("stream: tool call %s: %w", b.name, err)
		}
		calls = append(calls, core.NewToolCall(b.id, b.name, args))
	}
	a.final = calls
	return nil
}

func (a *aggregator) message() core.Message {
	msg := core.Message{Role: a.role, Content: a.content.String(), Parts: slices.Clone(a.parts)}

	calls := a.final
	if calls == nil {
		for _, b := range a.calls {
			if b.id == "" && b.name == "" && b.arguments.Len() == 0 {
				continue
			}
			args, err := core.ParseArguments(b.arguments.String())
			if err != nil {
				args = map[string]any{}
			}
			calls = append(calls, core.NewToolCall(b.id, b.name, args))
		}
	}
	if len(calls) > 0 {
		msg.Parts = append(msg.Parts, core.ToolCallsPart{Calls: calls})
	}
	return msg
}
