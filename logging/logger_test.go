package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestStructuredLogger_ContextualAttributes(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelDebug)

	logger.WithComponent("router").WithRequest("req-1").WithAdapter("openai").WithContext("k", "v").
		Info("adapter.call.start", "kind", "chat")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "adapter.call.start", lines[0]["msg"])
	assert.Equal(t, "router", lines[0]["component"])
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "openai", lines[0]["adapter"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.Equal(t, "chat", lines[0]["kind"])
}

func TestStructuredLogger_WithDoesNotMutateParent(t *testing.T) {
	parent, buf := newBufferLogger(LogLevelInfo)
	_ = parent.WithContext("child", true)

	parent.Info("parent")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "child")
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "w", lines[0]["msg"])
	assert.Equal(t, "e", lines[1]["msg"])
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelDebug)

	logger.LogRouting("req-1", "[feature:tools]", "openai", 2, nil)
	logger.LogRouting("req-2", "[privacy:high]", "", -1, errors.New("no adapter"))
	logger.WithAdapter("openai").LogAdapterCall(42, 10*time.Millisecond, nil)
	logger.LogToolCall("weather", "call-1", time.Millisecond, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "routing.match", lines[0]["msg"])
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "routing.no_match", lines[1]["msg"])
	assert.Equal(t, "adapter.call.success", lines[2]["msg"])
	assert.EqualValues(t, 42, lines[2]["token_count"])
	assert.Equal(t, "openai", lines[2]["adapter"])
	assert.Equal(t, "tool.call.error", lines[3]["msg"])
	assert.Equal(t, "boom", lines[3]["error"])
	assert.Equal(t, "call-1", lines[3]["call_id"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": LogLevelDebug, " INFO ": LogLevelInfo, "warning": LogLevelWarn, "error": LogLevelError} {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	got, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, got)
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestLoggerInterfaces(t *testing.T) {
	var _ Logger = NoOpLogger{}
	var _ Logger = &StructuredLogger{}
	var _ Logger = NewDefaultSlogLogger()
}
