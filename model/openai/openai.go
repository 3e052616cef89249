// Package openai provides model.Adapter implementations backed by the OpenAI
// API: Chat Completions (including streaming and tool calling) for chat and
// completion requests, and image generation for image requests. It adapts the
// provider agnostic Request/Response structures into the SDK's message format
// and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/model"
	"github.com/hupe1980/modelmesh/stream"
)

// Options configure the OpenAI chat adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	// Name identifies the adapter in logs and responses.
	Name                string
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Adapter wraps the OpenAI Chat Completions API behind the model.Adapter interface.
type Adapter struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI chat adapter using the official client. The API
// key is read from OPENAI_API_KEY.
func New(optFns ...func(o *Options)) *Adapter {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI chat adapter from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Adapter {
	opts := Options{
		Name:                "openai",
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
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

// SupportsFormat implements model.FormatSupporter.
func (a *Adapter) SupportsFormat(f model.Format) bool { return f.Valid() }

// SupportsResponseFormat implements model.FormatSupporter; structured output
// is enforced through the json_schema response format.
func (a *Adapter) SupportsResponseFormat() bool { return true }

// Handle implements model.Adapter.
func (a *Adapter) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	params := a.buildParams(req)
	if req.Options().Streamed {
		resp := model.NewStreamResponse(stream.New(a.streamFragments(ctx, params)))
		resp.Adapter = a.opts.Name
		return resp, nil
	}
	return a.complete(ctx, params)
}

// buildMessages converts the conversation into OpenAI chat messages. A
// completion request becomes a single user message after any instructions.
func buildMessages(req *model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range req.Messages() {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleUser:
			messages = append(messages, userMessage(m))
		case core.RoleAssistant:
			messages = append(messages, assistantMessage(m))
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	if req.Kind() == model.KindCompletion {
		messages = append(messages, openai.UserMessage(req.Prompt()))
	}
	return messages
}

func userMessage(m core.Message) openai.ChatCompletionMessageParamUnion {
	images := m.Images()
	if len(images) == 0 {
		return openai.UserMessage(m.Content)
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	if m.Content != "" {
		parts = append(parts, openai.TextContentPart(m.Content))
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: img.DataURL()}))
	}
	return openai.UserMessage(parts)
}

func assistantMessage(m core.Message) openai.ChatCompletionMessageParamUnion {
	calls := m.ToolCalls()
	if len(calls) == 0 {
		return openai.AssistantMessage(m.Content)
	}
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
	for _, tc := range calls {
		args, err := tc.ArgumentsJSON()
		if err != nil {
			args = "{}"
		}
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: args,
			},
		})
	}
	asst := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
	if m.Content != "" {
		asst.Content.OfString = openai.String(m.Content)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
}

// buildParams assembles the OpenAI request parameters including tool
// definitions and output format.
func (a *Adapter) buildParams(req *model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               a.opts.Model,
		Temperature:         openai.Float(a.opts.Temperature),
		MaxCompletionTokens: openai.Int(a.opts.MaxCompletionTokens),
	}

	opts := req.Options()
	switch {
	case opts.ResponseFormat != nil:
		rf := opts.ResponseFormat
		schema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   rf.Name,
			Schema: rf.Schema,
			Strict: openai.Bool(rf.Strict),
		}
		if rf.Description != "" {
			schema.Description = openai.String(rf.Description)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		}
	case opts.Format == model.FormatJSON:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	infos := req.ToolInfos()
	if len(infos) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(infos))
	for i, info := range infos {
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        info.Name,
				Description: openai.String(info.Description),
				Parameters:  openai.FunctionParameters(info.Schema()),
			},
		}
	}
	params.Tools = tools
	return params
}

// streamFragments adapts the SSE chunk stream into fragments. The HTTP
// request is issued on the first pull.
func (a *Adapter) streamFragments(ctx context.Context, params openai.ChatCompletionNewParams) func(yield func(stream.Fragment, error) bool) {
	return func(yield func(stream.Fragment, error) bool) {
		s := a.client.Chat.Completions.NewStreaming(ctx, params)
		defer s.Close()

		for s.Next() {
			ck := s.Current()
			for _, ch := range ck.Choices {
				f := stream.Fragment{Content: ch.Delta.Content, FinishReason: string(ch.FinishReason)}
				if ch.Delta.Role != "" {
					f.Role = core.Role(ch.Delta.Role)
				}
				for _, tc := range ch.Delta.ToolCalls {
					f.ToolCalls = append(f.ToolCalls, stream.ToolCallDelta{
						Index:     int(tc.Index),
						ID:        tc.ID,
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					})
				}
				if !yield(f, nil) {
					return
				}
			}
		}
		if err := s.Err(); err != nil {
			yield(stream.Fragment{}, fmt.Errorf("openai streaming error: %w", err))
		}
	}
}

// complete processes a normal (non-streaming) completion.
func (a *Adapter) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*model.Response, error) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	ch0 := resp.Choices[0]
	calls := make([]core.ToolCall, 0, len(ch0.Message.ToolCalls))
	for _, tc := range ch0.Message.ToolCalls {
		args, err := core.ParseArguments(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("openai: tool call %s: %w", tc.Function.Name, err)
		}
		calls = append(calls, core.NewToolCall(tc.ID, tc.Function.Name, args))
	}

	var parts []core.Part
	if len(calls) > 0 {
		parts = append(parts, core.ToolCallsPart{Calls: calls})
	}

	out := model.NewResponse(core.NewAssistantMessage(ch0.Message.Content, parts...))
	out.Adapter = a.opts.Name
	out.FinishReason = string(ch0.FinishReason)
	out.Usage = &model.TokenUsage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return out, nil
}

// ImageOptions configure the OpenAI image adapter.
type ImageOptions struct {
	Name  string
	Model string
	Size  string
}

// ImageAdapter generates images through the OpenAI Images API.
type ImageAdapter struct {
	client *openai.Client
	opts   ImageOptions
}

// NewImageAdapter creates an image adapter using the official client.
func NewImageAdapter(optFns ...func(o *ImageOptions)) *ImageAdapter {
	client := openai.NewClient()
	return NewImageAdapterFromClient(&client, optFns...)
}

// NewImageAdapterFromClient creates an image adapter from an existing client.
func NewImageAdapterFromClient(client *openai.Client, optFns ...func(o *ImageOptions)) *ImageAdapter {
	opts := ImageOptions{Name: "openai-image", Model: "dall-e-3", Size: "1024x1024"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ImageAdapter{client: client, opts: opts}
}

// Name returns the adapter name.
func (a *ImageAdapter) Name() string { return a.opts.Name }

// Supports accepts image requests.
func (a *ImageAdapter) Supports(req *model.Request) bool { return req.Kind() == model.KindImage }

// SupportsFormat implements model.FormatSupporter; only plain output exists.
func (a *ImageAdapter) SupportsFormat(f model.Format) bool { return f == model.FormatText }

// SupportsResponseFormat implements model.FormatSupporter.
func (a *ImageAdapter) SupportsResponseFormat() bool { return false }

// Handle generates one image and returns it as an image part. The revised
// prompt, when provided, becomes the message content.
func (a *ImageAdapter) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	res, err := a.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: req.Prompt(),
		Model:  openai.ImageModel(a.opts.Model),
		Size:   openai.ImageGenerateParamsSize(a.opts.Size),
		N:      openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("openai image error: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("openai: no images returned")
	}

	img := res.Data[0]
	part := core.ImagePart{URL: img.URL}
	if img.URL == "" {
		part = core.ImagePart{Base64: img.B64JSON, MimeType: "image/png"}
	}
	content := img.RevisedPrompt
	if content == "" {
		content = req.Prompt()
	}

	out := model.NewResponse(core.NewAssistantMessage(content, part))
	out.Adapter = a.opts.Name
	out.FinishReason = "stop"
	if req.Options().Streamed {
		out = model.NewStreamResponse(stream.FromMessage(out.Message()))
		out.Adapter = a.opts.Name
	}
	return out, nil
}

var (
	_ model.Adapter         = (*Adapter)(nil)
	_ model.FormatSupporter = (*Adapter)(nil)
	_ model.FormatSupporter = (*ImageAdapter)(nil)
)
