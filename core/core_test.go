package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Payload_Plain(t *testing.T) {
	msg := NewToolMessage("call-1", "lookup", "42")
	p := msg.Payload()
	assert.Equal(t, "tool", p["role"])
	assert.Equal(t, "42", p["content"])
	assert.Equal(t, "call-1", p["tool_call_id"])
	assert.Equal(t, "lookup", p["name"])
}

func TestMessage_Payload_ImageMergesIntoContentBlocks(t *testing.T) {
	msg := NewUserMessage("what is this?", ImagePart{Base64: "aGk=", MimeType: "image/jpeg"})
	p := msg.Payload()

	blocks, ok := p["content"].([]any)
	require.True(t, ok)
	require.Len(t, blocks, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": "what is this?"}, blocks[0])
	img := blocks[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, map[string]any{"url": "data:image/jpeg;base64,aGk="}, img["image_url"])
	assert.True(t, msg.HasImages())
}

func TestMessage_Payload_ToolCalls(t *testing.T) {
	call := NewToolCall("c1", "weather", map[string]any{"city": "Berlin"})
	msg := NewAssistantMessage("", ToolCallsPart{Calls: []ToolCall{call}})
	p := msg.Payload()

	calls, ok := p["tool_calls"].([]any)
	require.True(t, ok)
	require.Len(t, calls, 1)
	wire := calls[0].(map[string]any)
	assert.Equal(t, "c1", wire["id"])
	assert.Equal(t, "function", wire["type"])
	assert.Equal(t, map[string]any{"name": "weather", "arguments": `{"city":"Berlin"}`}, wire["function"])
	assert.True(t, msg.HasToolCalls())
	assert.Equal(t, []ToolCall{call}, msg.ToolCalls())
}

func TestToolCall_WireFormat(t *testing.T) {
	raw := `{"id":"123","type":"function","function":{"name":"test","arguments":"{\"test\":\"Test content\"}"}}`

	var tc ToolCall
	require.NoError(t, json.Unmarshal([]byte(raw), &tc))
	assert.Equal(t, ToolCallFunction, tc.Type)
	assert.Equal(t, "123", tc.ID)
	assert.Equal(t, "test", tc.Name)
	assert.Equal(t, map[string]any{"test": "Test content"}, tc.Arguments)

	out, err := json.Marshal(tc)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = ParseArguments(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, args)

	// trailing comma and single quotes are common model mistakes
	args, err = ParseArguments(`{'city': 'Paris',}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Paris"}, args)

	args, err = ParseArguments("```json\n{\"city\": \"Rome\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Rome"}, args)

	_, err = ParseArguments(`[1, 2]`)
	assert.ErrorIs(t, err, ErrMalformedArguments)
}

func TestParseArguments_RejectsTruncatedPayloads(t *testing.T) {
	for _, raw := range []string{
		`{"city":"Ber`,
		`{"account":"DE12","amount":10`,
		`{"a": 1`,
		`{"items": [1, 2`,
		`{'city': 'Par`,
	} {
		_, err := ParseArguments(raw)
		assert.ErrorIs(t, err, ErrMalformedArguments, raw)
	}

	args, err := ParseArguments(`{"note": "brace } and quote \" inside"}`)
	require.NoError(t, err)
	assert.Equal(t, `brace } and quote " inside`, args["note"])
}

func TestToolCall_UnmarshalRejectsTruncatedArguments(t *testing.T) {
	var tc ToolCall
	err := json.Unmarshal([]byte(`{"id":"c1","type":"function","function":{"name":"weather","arguments":"{\"city\":\"Ber"}}`), &tc)
	assert.ErrorIs(t, err, ErrMalformedArguments)
}

func TestImagePart_DataURLPrefersURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a.png", ImagePart{URL: "https://example.com/a.png", Base64: "x"}.DataURL())
	assert.Equal(t, "data:image/png;base64,x", ImagePart{Base64: "x"}.DataURL())
}

func TestNewID(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.Len(t, NewID(), 36)
}
