package model

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/modelmesh/core"
	"github.com/hupe1980/modelmesh/criteria"
	"github.com/hupe1980/modelmesh/tool"
)

// Kind identifies the shape of a request.
type Kind string

const (
	// KindChat is a multi message conversation.
	KindChat Kind = "chat"
	// KindCompletion is a single prompt text completion.
	KindCompletion Kind = "completion"
	// KindImage is an image generation request.
	KindImage Kind = "image"
)

// Format is the raw output format requested from the provider.
type Format string

const (
	// FormatText leaves the output format to the provider.
	FormatText Format = ""
	// FormatJSON asks the provider for a strict JSON object.
	FormatJSON Format = "json"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool { return f == FormatText || f == FormatJSON }

// Options are the request options adapters honor.
type Options struct {
	// Streamed requests a fragment stream instead of a single response.
	Streamed bool
	// Format requests a raw output format.
	Format Format
	// ResponseFormat describes structured output the response must conform to.
	ResponseFormat *ResponseFormat
}

// ErrNoHandler is returned by Execute when a request was built without a handler.
var ErrNoHandler = errors.New("model: request has no handler")

// Handler executes a request, typically by routing it to an adapter.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Request is a provider agnostic AI request. It is immutable once built;
// derived requests are created with the With* methods.
type Request struct {
	id       string
	kind     Kind
	criteria criteria.Collection
	options  Options
	messages []core.Message
	prompt   string
	tools    *tool.Registry
	handler  Handler
}

// ID returns the request identifier.
func (r *Request) ID() string { return r.id }

// Kind returns the request kind.
func (r *Request) Kind() Kind { return r.kind }

// Criteria returns the requirements an adapter must satisfy.
func (r *Request) Criteria() criteria.Collection { return r.criteria }

// Options returns the request options.
func (r *Request) Options() Options { return r.options }

// Messages returns a copy of the conversation.
func (r *Request) Messages() []core.Message { return slices.Clone(r.messages) }

// Prompt returns the prompt of completion and image requests.
func (r *Request) Prompt() string { return r.prompt }

// Tools returns the tool registry. It must be treated as read-only.
func (r *Request) Tools() *tool.Registry { return r.tools }

// ToolInfos returns the schemas of all registered tools.
func (r *Request) ToolInfos() []tool.ToolInfo { return r.tools.Infos() }

// Execute runs the request through its handler. Each call invokes the handler again.
func (r *Request) Execute(ctx context.Context) (*Response, error) {
	if r.handler == nil {
		return nil, ErrNoHandler
	}
	return r.handler(ctx, r)
}

// WithMessages returns a copy of the request with msgs appended to the
// conversation. It is used to feed tool results back to the model.
func (r *Request) WithMessages(msgs ...core.Message) *Request {
	nr := r.clone()
	nr.messages = append(nr.messages, msgs...)
	return nr
}

// WithSystemInstruction returns a copy of the request with a system message
// inserted after any leading system messages.
func (r *Request) WithSystemInstruction(text string) *Request {
	nr := r.clone()
	i := 0
	for i < len(nr.messages) && nr.messages[i].Role == core.RoleSystem {
		i++
	}
	nr.messages = slices.Insert(nr.messages, i, core.NewSystemMessage(text))
	return nr
}

func (r *Request) clone() *Request {
	nr := *r
	nr.messages = slices.Clone(r.messages)
	return &nr
}

// Builder assembles a Request. Criteria implied by the options (streaming,
// tools, JSON output, images) are added automatically.
type Builder struct {
	req  Request
	errs []error
}

// NewBuilder creates a builder for a request of the given kind.
func NewBuilder(kind Kind, handler Handler) *Builder {
	b := &Builder{req: Request{id: core.NewID(), kind: kind, handler: handler, tools: &tool.Registry{}}}
	if kind == KindImage {
		b.require(criteria.FeatureTextToImage)
	}
	return b
}

func (b *Builder) require(c ...criteria.Criteria) {
	b.req.criteria = b.req.criteria.With(c...)
}

// AddCriteria adds requirements.
func (b *Builder) AddCriteria(c ...criteria.Criteria) *Builder {
	b.require(c...)
	return b
}

// Streamed requests a fragment stream.
func (b *Builder) Streamed() *Builder {
	b.req.options.Streamed = true
	b.require(criteria.FeatureStream)
	return b
}

// AsJSON requests raw JSON output.
func (b *Builder) AsJSON() *Builder {
	b.req.options.Format = FormatJSON
	b.require(criteria.FeatureJSONOutput)
	return b
}

// WithFormat sets the raw output format. Unknown formats are rejected when
// the request is prepared for an adapter.
func (b *Builder) WithFormat(f Format) *Builder {
	b.req.options.Format = f
	if f == FormatJSON {
		b.require(criteria.FeatureJSONOutput)
	}
	return b
}

// WithResponseFormat requests structured output.
func (b *Builder) WithResponseFormat(rf *ResponseFormat) *Builder {
	if rf == nil {
		b.errs = append(b.errs, errors.New("model: nil response format"))
		return b
	}
	b.req.options.ResponseFormat = rf
	b.require(criteria.FeatureStructuredOutput)
	return b
}

// AddMessage appends a message to the conversation.
func (b *Builder) AddMessage(msg core.Message) *Builder {
	if msg.HasImages() {
		b.require(criteria.FeatureImageToText)
	}
	b.req.messages = append(b.req.messages, msg)
	return b
}

// AddSystemMessage appends a system message.
func (b *Builder) AddSystemMessage(content string) *Builder {
	return b.AddMessage(core.NewSystemMessage(content))
}

// AddUserMessage appends a user message with optional parts (images).
func (b *Builder) AddUserMessage(content string, parts ...core.Part) *Builder {
	return b.AddMessage(core.NewUserMessage(content, parts...))
}

// AddAssistantMessage appends an assistant message.
func (b *Builder) AddAssistantMessage(content string, parts ...core.Part) *Builder {
	return b.AddMessage(core.NewAssistantMessage(content, parts...))
}

// Prompt sets the prompt of completion and image requests.
func (b *Builder) Prompt(prompt string) *Builder {
	b.req.prompt = prompt
	return b
}

// Tool registers tools the model may call.
func (b *Builder) Tool(tools ...tool.Tool) *Builder {
	for _, t := range tools {
		if err := b.req.tools.Register(t); err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		b.require(criteria.FeatureTools)
	}
	return b
}

// Build returns the request. Errors collected while building are joined.
func (b *Builder) Build() (*Request, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("model: build request: %w", err)
	}
	req := b.req.clone()
	req.tools = b.req.tools.Clone()
	return req, nil
}

// Execute builds and executes the request.
func (b *Builder) Execute(ctx context.Context) (*Response, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return req.Execute(ctx)
}
