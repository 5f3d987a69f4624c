// Package mcp provides a Model Context Protocol server adapter for
// Concierge. It exposes the retrieval tools of one user to
// MCP-compatible AI assistants over stdio or HTTP.
package mcp

import "errors"

// ErrMissingToolExecutor is returned when no tool executor is provided.
var ErrMissingToolExecutor = errors.New("mcp: tool executor is required")
