package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/criteria"
	"github.com/hupe1980/modelmesh/internal/util"
	"github.com/hupe1980/modelmesh/tool"
)

func echoTool(t *testing.T, name string) tool.Tool {
	t.Helper()
	fn, err := tool.NewDynamic(name, "Echo.", []tool.Param{tool.Arg[string]("text")}, func(_ context.Context, args tool.Arguments) (any, error) {
		return args["text"], nil
	})
	require.NoError(t, err)
	return fn
}

// -------------------- Builder Tests --------------------

func TestBuilder_ImpliedCriteria(t *testing.T) {
	req, err := NewBuilder(KindChat, nil).
		AddCriteria(criteria.PrivacyHigh).
		Streamed().
		AsJSON().
		Tool(echoTool(t, "echo")).
		AddUserMessage("look", core.ImagePart{URL: "https://example.com/a.png"}).
		Build()
	require.NoError(t, err)

	c := req.Criteria()
	for _, want := range []criteria.Criteria{
		criteria.PrivacyHigh, criteria.FeatureStream, criteria.FeatureJSONOutput,
		criteria.FeatureTools, criteria.FeatureImageToText,
	} {
		assert.True(t, c.Contains(want), want.String())
	}
	assert.True(t, req.Options().Streamed)
	assert.Equal(t, FormatJSON, req.Options().Format)
	assert.Len(t, req.ToolInfos(), 1)
	assert.NotEmpty(t, req.ID())
}

func TestBuilder_ImageKindRequiresTextToImage(t *testing.T) {
	req, err := NewBuilder(KindImage, nil).Prompt("a cat").Build()
	require.NoError(t, err)
	assert.True(t, req.Criteria().Contains(criteria.FeatureTextToImage))
	assert.Equal(t, "a cat", req.Prompt())
}

func TestBuilder_CollectsRegistrationErrors(t *testing.T) {
	_, err := NewBuilder(KindChat, nil).
		Tool(echoTool(t, "echo"), echoTool(t, "echo")).
		WithResponseFormat(nil).
		Build()
	assert.ErrorIs(t, err, tool.ErrDuplicateTool)
}

func TestBuilder_StartsWithEmptyRegistry(t *testing.T) {
	req, err := NewBuilder(KindChat, nil).AddUserMessage("hi").Build()
	require.NoError(t, err)
	require.NotNil(t, req.Tools())
	assert.Zero(t, req.Tools().Len())

	req, err = NewBuilder(KindChat, nil).Tool(echoTool(t, "echo")).Build()
	require.NoError(t, err)
	assert.Equal(t, 1, req.Tools().Len())
}

func TestBuilder_BuildIsolatesRequests(t *testing.T) {
	b := NewBuilder(KindChat, nil).AddUserMessage("one")
	first, err := b.Build()
	require.NoError(t, err)

	b.AddUserMessage("two").Tool(echoTool(t, "late"))
	second, err := b.Build()
	require.NoError(t, err)

	assert.Len(t, first.Messages(), 1)
	assert.Zero(t, first.Tools().Len())
	assert.Len(t, second.Messages(), 2)
}

func TestRequest_ExecuteReinvokesHandler(t *testing.T) {
	calls := 0
	req, err := NewBuilder(KindChat, func(context.Context, *Request) (*Response, error) {
		calls++
		return NewResponse(core.NewAssistantMessage("ok")), nil
	}).Build()
	require.NoError(t, err)

	for range 2 {
		resp, err := req.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Message().Content)
	}
	assert.Equal(t, 2, calls)

	bare, err := NewBuilder(KindChat, nil).Build()
	require.NoError(t, err)
	_, err = bare.Execute(context.Background())
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestRequest_DerivedRequestsDoNotMutate(t *testing.T) {
	req, err := NewBuilder(KindChat, nil).AddSystemMessage("sys").AddUserMessage("hi").Build()
	require.NoError(t, err)

	next := req.WithMessages(core.NewAssistantMessage("hello"))
	instructed := req.WithSystemInstruction("be brief")

	assert.Len(t, req.Messages(), 2)
	assert.Len(t, next.Messages(), 3)
	require.Len(t, instructed.Messages(), 3)
	assert.Equal(t, "be brief", instructed.Messages()[1].Content)
	assert.Equal(t, core.RoleSystem, instructed.Messages()[1].Role)
	assert.Equal(t, req.ID(), next.ID())
}

// -------------------- Format Tests --------------------

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type strictAdapter struct {
	*MockAdapter
	json, structured bool
}

func (s strictAdapter) SupportsFormat(f Format) bool  { return f == FormatText || s.json }
func (s strictAdapter) SupportsResponseFormat() bool { return s.structured }

func TestResponseFormatFor(t *testing.T) {
	rf, err := ResponseFormatFor[person]("person", "A person.")
	require.NoError(t, err)

	assert.Equal(t, "object", rf.Schema["type"])
	props, ok := rf.Schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "age")
	assert.NotContains(t, rf.Schema, "$schema")

	assert.NoError(t, rf.Validate(`{"name":"Ada","age":36}`))
	assert.NoError(t, rf.Validate("```json\n{\"name\":\"Ada\",\"age\":36}\n```"))
	assert.Error(t, rf.Validate(`{"name":"Ada","age":"old"}`))
}

func TestDecode(t *testing.T) {
	rf, err := ResponseFormatFor[person]("person", "")
	require.NoError(t, err)

	got, err := Decode[person](NewResponse(core.NewAssistantMessage("```json\n{\"name\":\"Ada\",\"age\":36,}\n```")), rf)
	require.NoError(t, err)
	assert.Equal(t, person{Name: "Ada", Age: 36}, got)

	_, err = Decode[person](NewResponse(core.NewAssistantMessage(`{"name":"Ada","age":36`)), rf)
	var vErr *util.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = Decode[person](nil, rf)
	assert.Error(t, err)
}

func TestPrepareFormat(t *testing.T) {
	rf, err := ResponseFormatFor[person]("person", "")
	require.NoError(t, err)
	mock := NewMockAdapter("mock", KindChat, KindImage)

	t.Run("injects instruction", func(t *testing.T) {
		req, err := NewBuilder(KindChat, nil).AddUserMessage("who?").WithResponseFormat(rf).Build()
		require.NoError(t, err)

		prepared, err := PrepareFormat(req, mock)
		require.NoError(t, err)
		msgs := prepared.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, core.RoleSystem, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, `"person"`)
		assert.Contains(t, msgs[0].Content, `"properties"`)
		assert.Len(t, req.Messages(), 1)
	})

	t.Run("native support keeps request", func(t *testing.T) {
		req, err := NewBuilder(KindChat, nil).WithResponseFormat(rf).Build()
		require.NoError(t, err)
		prepared, err := PrepareFormat(req, strictAdapter{MockAdapter: mock, json: true, structured: true})
		require.NoError(t, err)
		assert.Same(t, req, prepared)
	})

	t.Run("json unsupported", func(t *testing.T) {
		req, err := NewBuilder(KindChat, nil).AsJSON().Build()
		require.NoError(t, err)
		_, err = PrepareFormat(req, strictAdapter{MockAdapter: mock})
		var fmtErr *InvalidResponseFormatError
		require.ErrorAs(t, err, &fmtErr)
		assert.Equal(t, "mock", fmtErr.Adapter)
	})

	t.Run("unknown format", func(t *testing.T) {
		req, err := NewBuilder(KindChat, nil).WithFormat("xml").Build()
		require.NoError(t, err)
		_, err = PrepareFormat(req, mock)
		var fmtErr *InvalidResponseFormatError
		assert.ErrorAs(t, err, &fmtErr)
	})

	t.Run("image with json", func(t *testing.T) {
		req, err := NewBuilder(KindImage, nil).AsJSON().Build()
		require.NoError(t, err)
		_, err = PrepareFormat(req, mock)
		var fmtErr *InvalidResponseFormatError
		assert.ErrorAs(t, err, &fmtErr)
	})
}

// -------------------- MockAdapter Tests --------------------

func TestMockAdapter_CannedAndEcho(t *testing.T) {
	mock := NewMockAdapter("mock")
	mock.AddResponse("ping", "pong")

	req, err := NewBuilder(KindChat, mock.Handle).AddUserMessage("ping").Build()
	require.NoError(t, err)
	resp, err := req.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Message().Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "mock", resp.Adapter)

	req, err = NewBuilder(KindCompletion, mock.Handle).Prompt("other").Build()
	require.NoError(t, err)
	resp, err = req.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Message().Content)
	assert.Len(t, mock.Requests(), 2)
}

func TestMockAdapter_StreamsScriptedToolCalls(t *testing.T) {
	mock := NewMockAdapter("mock")
	call := core.NewToolCall("c1", "echo", map[string]any{"text": "hi"})
	mock.Enqueue(core.NewAssistantMessage("ok", core.ToolCallsPart{Calls: []core.ToolCall{call}}))

	req, err := NewBuilder(KindChat, mock.Handle).Streamed().AddUserMessage("go").Build()
	require.NoError(t, err)
	resp, err := req.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, resp.IsStreamed())

	msg, err := resp.Collect()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, []core.ToolCall{call}, msg.ToolCalls())
	assert.True(t, resp.HasToolCalls())
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestMockAdapter_SupportsAndFailure(t *testing.T) {
	mock := NewMockAdapter("chat-only", KindChat)
	img, err := NewBuilder(KindImage, nil).Build()
	require.NoError(t, err)
	assert.False(t, mock.Supports(img))

	boom := errors.New("boom")
	mock.FailWith(boom)
	chat, err := NewBuilder(KindChat, nil).Build()
	require.NoError(t, err)
	_, err = mock.Handle(context.Background(), chat)
	assert.ErrorIs(t, err, boom)
}
