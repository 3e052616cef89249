package stream

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/modelmesh/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func textFragments(parts ...string) []Fragment {
	out := make([]Fragment, len(parts))
	for i, p := range parts {
		out[i] = Fragment{Content: p}
	}
	return out
}

func TestStream_AggregatesContent(t *testing.T) {
	s := FromFragments(textFragments("Hel", "lo", " world")...)

	var got []string
	for f, err := range s.All() {
		require.NoError(t, err)
		got = append(got, f.Content)
	}

	assert.Equal(t, []string{"Hel", "lo", " world"}, got)
	assert.Equal(t, "Hello world", s.Message().Content)
	assert.Equal(t, core.RoleAssistant, s.Message().Role)
	assert.True(t, s.Done())
	assert.NoError(t, s.Err())

	count := 0
	for range s.All() {
		count++
	}
	assert.Zero(t, count, "stream is single pass")
}

func TestStream_MessageIsIncremental(t *testing.T) {
	s := FromFragments(textFragments("a", "b")...)
	assert.Empty(t, s.Message().Content)

	f, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", f.Content)
	assert.Equal(t, "a", s.Message().Content)
	assert.False(t, s.Done())

	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ab", s.Message().Content)
}

func TestStream_MergesToolCallDeltas(t *testing.T) {
	s := FromFragments(
		Fragment{ToolCalls: []ToolCallDelta{{Index: 0, ID: "call_1", Name: "weather", Arguments: `{"ci`}}},
		Fragment{ToolCalls: []ToolCallDelta{{Index: 1, ID: "call_2", Name: "time", Arguments: `{}`}}},
		Fragment{ToolCalls: []ToolCallDelta{{Index: 0, Arguments: `ty":"Berlin"}`}}},
		Fragment{FinishReason: "tool_calls"},
	)

	msg, err := s.Collect()
	require.NoError(t, err)

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, core.NewToolCall("call_1", "weather", map[string]any{"city": "Berlin"}), calls[0])
	assert.Equal(t, core.NewToolCall("call_2", "time", map[string]any{}), calls[1])
	assert.Equal(t, "tool_calls", s.FinishReason())
}

func TestStream_TruncatedArgumentsFailAtFinalPull(t *testing.T) {
	for _, args := range []string{`{"city":"Ber`, `{"account":"DE12","amount":10`} {
		s := FromFragments(Fragment{ToolCalls: []ToolCallDelta{{Index: 0, ID: "c", Name: "pay", Arguments: args}}})

		_, err := s.Next()
		require.NoError(t, err, args)

		_, err = s.Next()
		assert.ErrorIs(t, err, core.ErrMalformedArguments, args)
		assert.True(t, s.Done())

		_, err = s.Collect()
		assert.ErrorIs(t, err, core.ErrMalformedArguments, args)
	}
}

func TestStream_RepairsSyntaxSlipsInArguments(t *testing.T) {
	s := FromFragments(Fragment{ToolCalls: []ToolCallDelta{{Index: 0, ID: "c", Name: "n", Arguments: `{'a': 1,}`}}})
	msg, err := s.Collect()
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls(), 1)
	assert.EqualValues(t, 1, msg.ToolCalls()[0].Arguments["a"])
}

func TestStream_RejectsOutOfRangeIndex(t *testing.T) {
	for _, idx := range []int{-1, 1 << 30} {
		s := FromFragments(Fragment{ToolCalls: []ToolCallDelta{{Index: idx, ID: "c", Name: "n"}}})
		_, err := s.Next()
		assert.ErrorIs(t, err, ErrInvalidIndex, idx)
		assert.True(t, s.Done())
	}

	s := FromFragments(Fragment{ToolCalls: []ToolCallDelta{{Index: 2, ID: "c", Name: "n", Arguments: `{}`}}})
	msg, err := s.Collect()
	require.NoError(t, err)
	assert.Len(t, msg.ToolCalls(), 1)
}

func TestStream_CarriesNonDeltaParts(t *testing.T) {
	img := core.ImagePart{URL: "https://images.example/cat.png"}
	s := FromFragments(
		Fragment{Role: core.RoleAssistant, Content: "a cat"},
		Fragment{Parts: []core.Part{img}},
		Fragment{ToolCalls: []ToolCallDelta{{Index: 0, ID: "c1", Name: "tag", Arguments: `{}`}}},
	)
	msg, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, []core.ImagePart{img}, msg.Images())
	assert.Len(t, msg.ToolCalls(), 1)

	bad := FromFragments(Fragment{Parts: []core.Part{core.ToolCallsPart{}}})
	_, err = bad.Next()
	assert.Error(t, err)
}

func TestFromMessage_KeepsImages(t *testing.T) {
	img := core.ImagePart{Base64: "AAAA", MimeType: "image/png"}
	call := core.NewToolCall("c1", "weather", map[string]any{"city": "Oslo"})
	msg, err := FromMessage(core.NewAssistantMessage("done", img, core.ToolCallsPart{Calls: []core.ToolCall{call}})).Collect()
	require.NoError(t, err)
	assert.Equal(t, "done", msg.Content)
	assert.Equal(t, []core.ImagePart{img}, msg.Images())
	assert.Equal(t, []core.ToolCall{call}, msg.ToolCalls())
}

func TestStream_ConflictingToolCallID(t *testing.T) {
	s := FromFragments(
		Fragment{ToolCalls: []ToolCallDelta{{Index: 0, ID: "a", Name: "x"}}},
		Fragment{ToolCalls: []ToolCallDelta{{Index: 0, ID: "b"}}},
	)

	_, err := s.Next()
	require.NoError(t, err)
	_, err = s.Next()

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 0, conflict.Index)
	assert.Equal(t, "a", conflict.Existing)
	assert.Equal(t, "b", conflict.Incoming)
	assert.True(t, s.Done())
}

func TestStream_ProducerErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	s := New(func(yield func(Fragment, error) bool) {
		if !yield(Fragment{Content: "partial"}, nil) {
			return
		}
		yield(Fragment{}, boom)
	})

	var errs []error
	for _, err := range s.All() {
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, "partial", s.Message().Content)
}

func TestStream_CloseStopsProducer(t *testing.T) {
	produced := 0
	s := New(func(yield func(Fragment, error) bool) {
		for {
			produced++
			if !yield(Fragment{Content: "x"}, nil) {
				return
			}
		}
	})

	for range s.All() {
		if produced == 3 {
			break
		}
	}
	s.Close()

	assert.True(t, s.Done())
	assert.ErrorIs(t, s.Err(), ErrClosed)
	assert.Equal(t, "xxx", s.Message().Content)
	assert.Equal(t, 3, produced)

	count := 0
	for range s.All() {
		count++
	}
	assert.Zero(t, count)
}
