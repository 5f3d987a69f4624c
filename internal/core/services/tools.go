package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
	"github.com/concierge-hq/concierge/internal/logger"
)

// Search defaults and bounds.
const (
	DefaultTopK = 5
	MaxTopK     = 10

	// Email bodies are clipped in tool payloads to keep the model
	// context small.
	maxEmailSnippet = 500

	// DefaultContactLimit bounds a contact fetch when the model does
	// not ask for a specific amount.
	DefaultContactLimit = 100
)

// Toolset provides the agent's tools over the vector index and the
// CRM. Bind it to a user with ForUser before executing.
type Toolset struct {
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	crm      driven.CRMClient
	tokens   driven.TokenProviderFactory
}

// NewToolset creates the toolset.
func NewToolset(
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	crm driven.CRMClient,
	tokens driven.TokenProviderFactory,
) *Toolset {
	return &Toolset{
		vectors:  vectors,
		embedder: embedder,
		crm:      crm,
		tokens:   tokens,
	}
}

// ForUser binds the toolset to one user for the duration of a turn.
func (t *Toolset) ForUser(userID string) driven.ToolExecutor {
	return &userToolset{Toolset: t, userID: userID}
}

// Ensure userToolset implements the interface.
var _ driven.ToolExecutor = (*userToolset)(nil)

type userToolset struct {
	*Toolset
	userID string
}

// Definitions returns the tool schemas advertised to the model.
func (u *userToolset) Definitions() []driven.ToolDefinition {
	queryTopK := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Natural language search query.",
			},
			"top_k": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Number of results to return (1-%d, default %d).", MaxTopK, DefaultTopK),
			},
		},
		"required": []string{"query"},
	}

	return []driven.ToolDefinition{
		{
			Name:        domain.ToolSearchDocuments,
			Description: "Semantic search over the user's workspace pages. Returns matching page excerpts.",
			Parameters:  queryTopK,
		},
		{
			Name:        domain.ToolSearchEmail,
			Description: "Semantic search over the user's recent email. Returns matching messages with subject and sender.",
			Parameters:  queryTopK,
		},
		{
			Name:        domain.ToolFetchContacts,
			Description: "Fetch the user's CRM contacts, optionally filtered by name, email or company substring.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Optional substring to filter contacts by.",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": fmt.Sprintf("Maximum contacts to fetch (default %d).", DefaultContactLimit),
					},
				},
			},
		},
	}
}

// toolArgs is the superset of every tool's argument object.
type toolArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	Limit int    `json:"limit"`
}

// Execute runs one tool call. It never returns an error: failures are
// serialized into the payload so the model can narrate them.
func (u *userToolset) Execute(ctx context.Context, call domain.ToolCall) string {
	var args toolArgs
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return errorPayload(fmt.Sprintf("invalid arguments: %v", err))
		}
	}

	switch call.Name {
	case domain.ToolSearchDocuments:
		return u.searchDocuments(ctx, args)
	case domain.ToolSearchEmail:
		return u.searchEmail(ctx, args)
	case domain.ToolFetchContacts:
		return u.fetchContacts(ctx, args)
	default:
		return errorPayload(fmt.Sprintf("unknown tool %q", call.Name))
	}
}

func (u *userToolset) searchDocuments(ctx context.Context, args toolArgs) string {
	hits, errPayload := u.search(ctx, domain.ProviderNotion, args)
	if errPayload != "" {
		return errPayload
	}

	out := domain.DocumentHits{Results: []domain.DocumentHit{}}
	for _, hit := range hits {
		out.Results = append(out.Results, domain.DocumentHit{
			Title:   hit.Title,
			Content: hit.Content,
			Score:   hit.Score,
		})
	}
	out.Count = len(out.Results)
	return marshalPayload(out)
}

func (u *userToolset) searchEmail(ctx context.Context, args toolArgs) string {
	hits, errPayload := u.search(ctx, domain.ProviderGmail, args)
	if errPayload != "" {
		return errPayload
	}

	out := domain.EmailHits{Results: []domain.EmailHit{}}
	for _, hit := range hits {
		out.Results = append(out.Results, domain.EmailHit{
			Subject: hit.Title,
			Sender:  hit.Sender,
			Content: clip(hit.Content, maxEmailSnippet),
			Score:   hit.Score,
		})
	}
	out.Count = len(out.Results)
	return marshalPayload(out)
}

// search embeds the query and runs it against one collection, mapping
// failures to payload errors.
func (u *userToolset) search(ctx context.Context, provider domain.Provider, args toolArgs) ([]domain.SearchHit, string) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, errorPayload("query must not be empty")
	}

	// An empty result set is ambiguous to the model: without this check
	// an unconnected user would be told "nothing found" instead of being
	// asked to connect the account.
	if _, err := u.tokens.For(u.userID, provider).Token(ctx); errors.Is(err, domain.ErrAccountNotConnected) {
		return nil, errorPayload(fmt.Sprintf("%s account not connected; ask the user to connect it first", provider))
	}

	topK := args.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	vector, err := u.embedder.Embed(ctx, args.Query)
	if err != nil {
		logger.Warn("Query embedding failed for %s: %v", u.userID, err)
		return nil, errorPayload("search is temporarily unavailable")
	}

	hits, err := u.vectors.Search(ctx, provider, u.userID, vector, topK)
	if err != nil {
		logger.Warn("Vector search failed for %s/%s: %v", u.userID, provider, err)
		return nil, errorPayload("search is temporarily unavailable")
	}
	return hits, ""
}

func (u *userToolset) fetchContacts(ctx context.Context, args toolArgs) string {
	limit := args.Limit
	if limit <= 0 {
		limit = DefaultContactLimit
	}

	tokens := u.tokens.For(u.userID, domain.ProviderHubSpot)
	token, err := tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotConnected) {
			return errorPayload("hubspot account not connected; ask the user to connect it first")
		}
		return errorPayload("hubspot authentication expired; ask the user to reconnect")
	}

	contacts, err := u.crm.ListContacts(ctx, token, limit)
	if errors.Is(err, domain.ErrAuthExpired) {
		// The token may have been revoked out from under us; refresh
		// once and retry exactly once.
		tokens.Invalidate()
		token, err = tokens.Token(ctx)
		if err == nil {
			contacts, err = u.crm.ListContacts(ctx, token, limit)
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) || errors.Is(err, domain.ErrAccountNotConnected) {
			return errorPayload("hubspot authentication expired; ask the user to reconnect")
		}
		logger.Warn("Contact fetch failed for %s: %v", u.userID, err)
		return errorPayload("contacts are temporarily unavailable")
	}

	if query := strings.TrimSpace(args.Query); query != "" {
		contacts = filterContacts(contacts, query)
	}

	out := domain.ContactHits{Contacts: contacts, Count: len(contacts)}
	if out.Contacts == nil {
		out.Contacts = []domain.Contact{}
	}
	return marshalPayload(out)
}

// filterContacts keeps contacts whose name, email or company contains
// the query, case-insensitively.
func filterContacts(contacts []domain.Contact, query string) []domain.Contact {
	query = strings.ToLower(query)
	out := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Email), query) ||
			strings.Contains(strings.ToLower(c.Company), query) {
			out = append(out, c)
		}
	}
	return out
}

// marshalPayload serializes a tool result. Marshal failures degrade to
// an error payload; the model always receives valid JSON.
func marshalPayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return errorPayload("internal serialization error")
	}
	return string(data)
}

func errorPayload(msg string) string {
	data, _ := json.Marshal(domain.ErrorResult{Error: msg})
	return string(data)
}

// clip truncates s to at most max bytes without splitting a rune.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
