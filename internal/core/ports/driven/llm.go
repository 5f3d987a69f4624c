package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// ToolDefinition describes one tool the model may invoke.
type ToolDefinition struct {
	// Name is the tool identifier sent to the model.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is the JSON schema of the argument object.
	Parameters map[string]any
}

// ChatResult is the model's response to one chat call.
type ChatResult struct {
	// Content is the assistant text. Empty when the response consists
	// solely of tool calls.
	Content string

	// ToolCalls are the tool invocations the model requested, in order.
	ToolCalls []domain.ToolCall
}

// ChatService conducts tool-calling conversations with a language
// model.
type ChatService interface {
	// Chat runs one model call to completion without streaming.
	Chat(ctx context.Context, messages []domain.Message, tools []ToolDefinition) (*ChatResult, error)

	// ChatStream runs one model call, forwarding each output token to
	// onToken as it arrives. Tool-call deltas are aggregated internally
	// and returned on the result, not streamed. onToken may be nil.
	ChatStream(ctx context.Context, messages []domain.Message, tools []ToolDefinition, onToken func(token string)) (*ChatResult, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// ToolExecutor runs tool invocations for the agent. Execution never
// fails from the orchestrator's point of view: errors are serialized
// into the returned payload so the conversation can always continue.
type ToolExecutor interface {
	// Definitions returns the tool schemas advertised to the model.
	Definitions() []ToolDefinition

	// Execute runs one tool call and returns its serialized JSON
	// payload.
	Execute(ctx context.Context, call domain.ToolCall) string
}
