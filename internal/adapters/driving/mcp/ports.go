package mcp

import (
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ports aggregates everything the MCP server needs. The executor is
// already bound to one user; the server never sees user IDs.
type Ports struct {
	// Tools executes the retrieval tools for the bound user.
	Tools driven.ToolExecutor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingToolExecutor
	}
	return nil
}
