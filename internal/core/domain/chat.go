package domain

import "time"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	// ID is the provider-assigned call identifier, echoed back in the
	// tool result message.
	ID string `json:"id"`

	// Name is the tool name (search_documents, search_email,
	// fetch_contacts).
	Name string `json:"name"`

	// Arguments is the raw JSON argument object.
	Arguments string `json:"arguments"`
}

// Message is one entry in a conversation history.
type Message struct {
	// Role is one of the Role* constants.
	Role string `json:"role"`

	// Content is the message text. Empty for assistant messages that
	// consist solely of tool calls.
	Content string `json:"content"`

	// ToolCalls are set on assistant messages that request tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolName is the tool that produced a tool message.
	ToolName string `json:"tool_name,omitempty"`
}

// StoredMessage is a persisted chat message as held by the durable
// message store. Only user and assistant turns are persisted; tool
// traffic is transient.
type StoredMessage struct {
	ID             string
	ConversationID string
	UserID         string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// Citation is a structured reference back to a source record that
// informed part of an answer. Derived per turn, never persisted on its
// own.
type Citation struct {
	// Tool identifies which tool produced the source.
	Tool string `json:"tool"`

	// Title is the page title, email subject, or contact summary.
	Title string `json:"title"`

	// Subtitle is optional detail, e.g. `From: alice@example.com`.
	Subtitle string `json:"subtitle,omitempty"`
}

// TurnResult is the outcome of one agent turn.
type TurnResult struct {
	// Content is the final assistant answer. Concatenating all streamed
	// tokens for the turn yields this value.
	Content string `json:"content"`

	// Citations are the deduplicated source references for the turn.
	Citations []Citation `json:"citations"`
}
