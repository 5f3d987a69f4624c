package driving

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// Agent answers one user message through the two-node model/tool loop,
// streaming output tokens to the caller. The real-time transport layer
// delivering tokens and the final payload to the client sits outside
// this boundary.
type Agent interface {
	// RunTurn processes one user message for a conversation. onToken is
	// invoked for each visible output token as it arrives; if the run
	// completes without emitting any token, the final answer is
	// delivered as one onToken call. Concatenating all tokens equals
	// the returned content.
	RunTurn(ctx context.Context, userID, conversationID, userMessage string, onToken func(token string)) (*domain.TurnResult, error)

	// ClearConversation drops the in-process memory for a conversation.
	// The durable message store is untouched.
	ClearConversation(conversationID string)
}
