package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// SearchInput is the input schema for both search tools.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the natural-language search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return, 1 to 10 (default 5)"`
}

// ContactsInput is the input schema for the contacts tool.
type ContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"optional substring filter on name, email or company"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum contacts to fetch (default 100)"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        domain.ToolSearchDocuments,
		Description: "Semantic search over the user's synced workspace pages",
	}, s.handleSearchDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        domain.ToolSearchEmail,
		Description: "Semantic search over the user's synced email",
	}, s.handleSearchEmail)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        domain.ToolFetchContacts,
		Description: "Fetch the user's CRM contacts, optionally filtered",
	}, s.handleFetchContacts)
}

func (s *Server) handleSearchDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, domain.DocumentHits, error) {
	result, err := s.execute(ctx, domain.ToolSearchDocuments, input)
	if err != nil {
		return nil, domain.DocumentHits{}, err
	}
	hits, ok := result.(domain.DocumentHits)
	if !ok {
		return nil, domain.DocumentHits{}, errors.New("unexpected tool payload shape")
	}
	return nil, hits, nil
}

func (s *Server) handleSearchEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, domain.EmailHits, error) {
	result, err := s.execute(ctx, domain.ToolSearchEmail, input)
	if err != nil {
		return nil, domain.EmailHits{}, err
	}
	hits, ok := result.(domain.EmailHits)
	if !ok {
		return nil, domain.EmailHits{}, errors.New("unexpected tool payload shape")
	}
	return nil, hits, nil
}

func (s *Server) handleFetchContacts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContactsInput,
) (*mcp.CallToolResult, domain.ContactHits, error) {
	result, err := s.execute(ctx, domain.ToolFetchContacts, input)
	if err != nil {
		return nil, domain.ContactHits{}, err
	}
	hits, ok := result.(domain.ContactHits)
	if !ok {
		return nil, domain.ContactHits{}, errors.New("unexpected tool payload shape")
	}
	return nil, hits, nil
}

// execute runs one tool through the bound executor and decodes the
// serialized payload. Payload-level errors come back as Go errors so
// the SDK reports them as tool-call failures.
func (s *Server) execute(ctx context.Context, tool string, input any) (domain.ToolResult, error) {
	args, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	payload := s.ports.Tools.Execute(ctx, domain.ToolCall{
		ID:        "mcp",
		Name:      tool,
		Arguments: string(args),
	})

	switch result := domain.ParseToolResult(tool, payload).(type) {
	case nil:
		return nil, errors.New("malformed tool payload")
	case domain.ErrorResult:
		return nil, errors.New(result.Error)
	default:
		return result, nil
	}
}
