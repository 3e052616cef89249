// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing messages, tool calls, fragment
// sequences and log recorders. These helpers are intentionally minimal and
// are not intended for production usage.
package testutil
