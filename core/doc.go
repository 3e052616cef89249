// Package core provides the provider-agnostic message model shared by every
// other package in modelmesh:
//
//   - Message: role + plain text content, optionally layered with structured parts
//   - Part: closed set of structured segments (images, tool calls)
//   - ToolCall: a model-issued request to invoke a registered tool, including
//     the OpenAI-compatible wire codec for its JSON encoded arguments
//
// The package has no knowledge of adapters, routing or streaming so it can be
// imported from anywhere without cycles.
package core
