package domain

import "encoding/json"

// Tool names exposed to the agent.
const (
	ToolSearchDocuments = "search_documents"
	ToolSearchEmail     = "search_email"
	ToolFetchContacts   = "fetch_contacts"
)

// ToolResult is the tagged union of every tool payload shape. Tool
// output is parsed into this union once, at the tool boundary; citation
// extraction is a single exhaustive switch over the variants instead of
// structural guessing on loose JSON.
type ToolResult interface {
	toolResult()
}

// DocumentHit is one semantic search result from the document
// workspace.
type DocumentHit struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// DocumentHits is the search_documents payload.
type DocumentHits struct {
	Results []DocumentHit `json:"results"`
	Count   int           `json:"count"`
}

func (DocumentHits) toolResult() {}

// EmailHit is one semantic search result from the inbox.
type EmailHit struct {
	Subject string  `json:"subject"`
	Sender  string  `json:"sender"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// EmailHits is the search_email payload.
type EmailHits struct {
	Results []EmailHit `json:"results"`
	Count   int        `json:"count"`
}

func (EmailHits) toolResult() {}

// Contact is one CRM contact.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// ContactHits is the fetch_contacts payload.
type ContactHits struct {
	Contacts []Contact `json:"contacts"`
	Count    int       `json:"count"`
}

func (ContactHits) toolResult() {}

// ErrorResult is a tool failure the model can narrate to the user
// ("account not connected", upstream failure). Tools never raise;
// errors travel inside the payload.
type ErrorResult struct {
	Error string `json:"error"`
}

func (ErrorResult) toolResult() {}

// envelope mirrors the serialized payload shape for union dispatch.
type envelope struct {
	Error    string          `json:"error,omitempty"`
	Results  json.RawMessage `json:"results,omitempty"`
	Contacts json.RawMessage `json:"contacts,omitempty"`
	Count    int             `json:"count"`
}

// ParseToolResult decodes a serialized tool payload back into the
// variant for the given tool. Malformed or unrecognized payloads return
// nil; callers degrade to zero citations rather than failing the turn.
func ParseToolResult(tool, payload string) ToolResult {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil
	}
	if env.Error != "" {
		return ErrorResult{Error: env.Error}
	}

	switch tool {
	case ToolSearchDocuments:
		var out DocumentHits
		if err := json.Unmarshal([]byte(payload), &out); err != nil {
			return nil
		}
		return out
	case ToolSearchEmail:
		var out EmailHits
		if err := json.Unmarshal([]byte(payload), &out); err != nil {
			return nil
		}
		return out
	case ToolFetchContacts:
		var out ContactHits
		if err := json.Unmarshal([]byte(payload), &out); err != nil {
			return nil
		}
		return out
	}
	return nil
}
