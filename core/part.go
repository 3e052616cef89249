package core

import "fmt"

// Part represents a structured segment layered on top of a message's plain text.
// Concrete part types implement the unexported methods enabling a closed set.
type Part interface {
	isPart()
	// enhance merges the part into a wire payload built from the message.
	enhance(payload map[string]any)
}

// ImagePart attaches an image either inline (base64) or by URL.
type ImagePart struct {
	Base64   string // Base64 encoded bytes (if inlined)
	MimeType string // e.g. image/png
	URL      string // External retrieval URL (if not inlined)
}

func (ImagePart) isPart() {}

// DataURL returns the URL form of the image, encoding inline bytes as a data URL.
func (p ImagePart) DataURL() string {
	if p.URL != "" {
		return p.URL
	}
	mime := p.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, p.Base64)
}

func (p ImagePart) enhance(payload map[string]any) {
	var blocks []any
	switch existing := payload["content"].(type) {
	case []any:
		blocks = existing
	case string:
		if existing != "" {
			blocks = append(blocks, map[string]any{"type": "text", "text": existing})
		}
	}
	blocks = append(blocks, map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": p.DataURL()},
	})
	payload["content"] = blocks
}

// ToolCallsPart carries the tool calls an assistant message requested.
type ToolCallsPart struct {
	Calls []ToolCall
}

func (ToolCallsPart) isPart() {}

func (p ToolCallsPart) enhance(payload map[string]any) {
	calls, _ := payload["tool_calls"].([]any)
	for _, tc := range p.Calls {
		calls = append(calls, tc.wire())
	}
	payload["tool_calls"] = calls
}
