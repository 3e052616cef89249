// Package model defines the provider-agnostic request, response and adapter
// abstractions that the decision tree routes between.
//
// Core goals:
//   - Describe what a request needs (criteria) instead of which backend serves it
//   - Unify single responses and fragment streams behind one Response type
//   - Keep tool definitions and tool calls in one vendor neutral shape
//   - Facilitate lightweight mocking for tests (MockAdapter)
//
// Providers (e.g. OpenAI, Anthropic) implement the Adapter interface from this
// package so the router and decision tree remain decoupled from vendor SDKs.
package model
