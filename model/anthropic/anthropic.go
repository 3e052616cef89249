// Package anthropic provides a model.Adapter for the Anthropic Claude
// Messages API, including streaming and tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/model"
	"github.com/hupe1980/modelmesh/stream"
	"github.com/hupe1980/modelmesh/tool"
)

// Options configures the Anthropic adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	// Name identifies the adapter in logs and responses.
	Name        string
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

func defaultOptions() Options {
	return Options{
		Name:        "anthropic",
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Adapter wraps the Anthropic Messages API behind the model.Adapter interface.
type Adapter struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic adapter using the official client. Without an
// explicit APIKey the client reads ANTHROPIC_API_KEY.
func New(optFns ...func(o *Options)) *Adapter {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Adapter{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic adapter from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Adapter {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{client: client, opts: opts}
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.opts.Name }

// Supports accepts chat and completion requests.
func (a *Adapter) Supports(req *model.Request) bool {
	return req.Kind() == model.KindChat || req.Kind() == model.KindCompletion
}

// SupportsFormat implements model.FormatSupporter. The Messages API has no
// JSON mode.
func (a *Adapter) SupportsFormat(f model.Format) bool { return f == model.FormatText }

// SupportsResponseFormat implements model.FormatSupporter. Structured output
// is requested through an injected instruction instead.
func (a *Adapter) SupportsResponseFormat() bool { return false }

// Handle implements model.Adapter.
func (a *Adapter) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	params := a.buildParams(req)
	if req.Options().Streamed {
		resp := model.NewStreamResponse(stream.New(a.streamFragments(ctx, params)))
		resp.Adapter = a.opts.Name
		return resp, nil
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var (
		text  string
		calls []core.ToolCall
	)
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			raw, err := json.Marshal(b.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic: tool call %s: %w", b.Name, err)
			}
			args, err := core.ParseArguments(string(raw))
			if err != nil {
				return nil, fmt.Errorf("anthropic: tool call %s: %w", b.Name, err)
			}
			calls = append(calls, core.NewToolCall(b.ID, b.Name, args))
		}
	}

	var parts []core.Part
	if len(calls) > 0 {
		parts = append(parts, core.ToolCallsPart{Calls: calls})
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}

	out := model.NewResponse(core.NewAssistantMessage(text, parts...))
	out.Adapter = a.opts.Name
	out.FinishReason = finishReason
	out.Usage = &model.TokenUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	return out, nil
}

func (a *Adapter) buildParams(req *model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       a.opts.Model,
		Messages:    buildMessages(req),
		MaxTokens:   a.opts.MaxTokens,
		Temperature: anthropic.Float(a.opts.Temperature),
	}
	if system := systemBlocks(req.Messages()); len(system) > 0 {
		params.System = system
	}
	if infos := req.ToolInfos(); len(infos) > 0 {
		params.Tools = buildTools(infos)
	}
	return params
}

// streamFragments adapts the Messages event stream into fragments. Tool use
// blocks are numbered in order of appearance; text blocks do not take an index.
func (a *Adapter) streamFragments(ctx context.Context, params anthropic.MessageNewParams) func(yield func(stream.Fragment, error) bool) {
	return func(yield func(stream.Fragment, error) bool) {
		s := a.client.Messages.NewStreaming(ctx, params)
		defer s.Close()

		toolIndex := map[int64]int{}
		for s.Next() {
			event := s.Current()

			var f stream.Fragment
			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if e.ContentBlock.Type != "tool_use" {
					continue
				}
				idx := len(toolIndex)
				toolIndex[e.Index] = idx
				f.ToolCalls = []stream.ToolCallDelta{{Index: idx, ID: e.ContentBlock.ID, Name: e.ContentBlock.Name}}
			case anthropic.ContentBlockDeltaEvent:
				switch e.Delta.Type {
				case "text_delta":
					f.Content = e.Delta.Text
				case "input_json_delta":
					idx, ok := toolIndex[e.Index]
					if !ok {
						continue
					}
					f.ToolCalls = []stream.ToolCallDelta{{Index: idx, Arguments: e.Delta.PartialJSON}}
				default:
					continue
				}
			case anthropic.MessageDeltaEvent:
				if e.Delta.StopReason == "" {
					continue
				}
				f.FinishReason = string(e.Delta.StopReason)
			default:
				continue
			}

			if !yield(f, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(stream.Fragment{}, fmt.Errorf("anthropic streaming error: %w", err))
		}
	}
}

// buildMessages converts the conversation to Anthropic message format.
// System messages are sent separately; consecutive tool results are grouped
// into one user turn following the assistant's tool use.
func buildMessages(req *model.Request) []anthropic.MessageParam {
	var (
		messages    []anthropic.MessageParam
		toolResults []anthropic.ContentBlockParamUnion
	)

	flush := func() {
		if len(toolResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResults...))
			toolResults = nil
		}
	}

	for _, m := range req.Messages() {
		switch m.Role {
		case core.RoleSystem:
			continue
		case core.RoleTool:
			toolResults = append(toolResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
			continue
		}

		flush()
		switch m.Role {
		case core.RoleUser:
			if content := userContent(m); len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		case core.RoleAssistant:
			if content := assistantContent(m); len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		}
	}
	flush()

	if req.Kind() == model.KindCompletion {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt())))
	}
	return messages
}

func systemBlocks(msgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range msgs {
		if m.Role == core.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

func userContent(m core.Message) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	for _, img := range m.Images() {
		if img.URL != "" {
			content = append(content, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: img.URL}))
			continue
		}
		mime := img.MimeType
		if mime == "" {
			mime = "image/png"
		}
		content = append(content, anthropic.NewImageBlockBase64(mime, img.Base64))
	}
	if m.Content != "" {
		content = append(content, anthropic.NewTextBlock(m.Content))
	}
	return content
}

func assistantContent(m core.Message) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	if m.Content != "" {
		content = append(content, anthropic.NewTextBlock(m.Content))
	}
	for _, tc := range m.ToolCalls() {
		content = append(content, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
	}
	return content
}

// buildTools converts tool schemas to the Anthropic tool format.
func buildTools(infos []tool.ToolInfo) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(infos))
	for i, info := range infos {
		schema := info.Schema()
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
			Required:   info.RequiredNames(),
		}
		tools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        info.Name,
				Description: anthropic.String(info.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return tools
}

var (
	_ model.Adapter         = (*Adapter)(nil)
	_ model.FormatSupporter = (*Adapter)(nil)
)
