package core

import "github.com/google/uuid"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a role-tagged piece of conversation. Tool result messages carry
// the originating call id and tool name.
type Message struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	Parts      []Part `json:"-"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// NewUserMessage creates a user message, optionally with structured parts.
func NewUserMessage(content string, parts ...Part) Message {
	return Message{Role: RoleUser, Content: content, Parts: parts}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates an assistant message, optionally with structured parts.
func NewAssistantMessage(content string, parts ...Part) Message {
	return Message{Role: RoleAssistant, Content: content, Parts: parts}
}

// NewToolMessage creates the result message for a tool call.
func NewToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: name}
}

// ToolCalls returns every tool call carried by the message parts, in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tp, ok := p.(ToolCallsPart); ok {
			calls = append(calls, tp.Calls...)
		}
	}
	return calls
}

// HasToolCalls reports whether the message requests at least one tool call.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls()) > 0 }

// Images returns the image parts of the message.
func (m Message) Images() []ImagePart {
	var images []ImagePart
	for _, p := range m.Parts {
		if ip, ok := p.(ImagePart); ok {
			images = append(images, ip)
		}
	}
	return images
}

// HasImages reports whether the message carries at least one image.
func (m Message) HasImages() bool { return len(m.Images()) > 0 }

// Payload renders the message as an OpenAI-compatible wire map. Plain fields
// are written first; every part then merges itself into the payload.
func (m Message) Payload() map[string]any {
	payload := map[string]any{
		"role":    string(m.Role),
		"content": m.Content,
	}
	if m.ToolCallID != "" {
		payload["tool_call_id"] = m.ToolCallID
	}
	if m.Name != "" {
		payload["name"] = m.Name
	}
	for _, p := range m.Parts {
		p.enhance(payload)
	}
	return payload
}

// NewID returns a random identifier for requests and synthesized tool calls.
func NewID() string { return uuid.NewString() }
