package tool

import (
	"context"

	"github.com/hupe1980/modelmesh/logging"
)

// CallInfo describes the tool call currently being executed. The Executor
// attaches it to the context handed to Tool.Call.
type CallInfo struct {
	ID     string
	Name   string
	Logger logging.Logger
}

type callInfoKey struct{}

// WithCallInfo returns a context carrying info.
func WithCallInfo(ctx context.Context, info CallInfo) context.Context {
	if info.Logger == nil {
		info.Logger = logging.NoOpLogger{}
	}
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallInfoFromContext returns the call info attached by the Executor.
// Outside of an executor call it reports false and a no-op logger.
func CallInfoFromContext(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	if !ok {
		return CallInfo{Logger: logging.NoOpLogger{}}, false
	}
	return info, true
}
