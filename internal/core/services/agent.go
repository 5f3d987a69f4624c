package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
	"github.com/concierge-hq/concierge/internal/core/ports/driving"
	"github.com/concierge-hq/concierge/internal/logger"
)

// maxToolIterations bounds the model/tool loop for one turn. Past the
// bound the model is called once more without tools so the turn always
// ends in an answer.
const maxToolIterations = 8

const systemPrompt = `You are Concierge, an assistant that answers questions from the user's connected workspace.

You have tools to search the user's documents, search their email, and fetch their CRM contacts. Use them whenever the question concerns the user's own data; answer directly only when no connected source could help. When a tool reports an error such as an account not being connected, relay it plainly and tell the user what to do. Ground every factual claim about the user's data in tool results.`

var _ driving.Agent = (*Agent)(nil)

// ToolsetProvider binds the tool layer to one user for a turn.
type ToolsetProvider interface {
	ForUser(userID string) driven.ToolExecutor
}

// Agent runs the two-state model/tool loop for chat turns. It streams
// answer tokens to the caller, keeps per-conversation memory, and
// derives citations from the tool calls the turn executed.
type Agent struct {
	chat     driven.ChatService
	tools    ToolsetProvider
	memory   *conversationMemory
	messages driven.MessageStore
}

func NewAgent(chat driven.ChatService, tools ToolsetProvider, messages driven.MessageStore) *Agent {
	return &Agent{
		chat:     chat,
		tools:    tools,
		memory:   newConversationMemory(messages),
		messages: messages,
	}
}

// RunTurn processes one user message. Each visible output token is
// forwarded to onToken as it arrives; if the model never streamed a
// visible token, the final answer is delivered as a single callback.
func (a *Agent) RunTurn(ctx context.Context, userID, conversationID, userMessage string, onToken func(token string)) (*domain.TurnResult, error) {
	history := a.memory.History(ctx, conversationID)

	msgs := make([]domain.Message, 0, len(history)+2)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, history...)
	userMsg := domain.Message{Role: domain.RoleUser, Content: userMessage}
	msgs = append(msgs, userMsg)
	a.memory.Append(conversationID, userMsg)

	executor := a.tools.ForUser(userID)
	defs := executor.Definitions()

	var (
		invocations []toolInvocation
		streamed    int
		content     string
	)
	forward := func(token string) {
		streamed++
		if onToken != nil {
			onToken(token)
		}
	}

	for iteration := 0; ; iteration++ {
		tools := defs
		if iteration >= maxToolIterations {
			tools = nil
		}

		result, err := a.chat.ChatStream(ctx, msgs, tools, forward)
		if err != nil {
			return nil, err
		}

		if len(result.ToolCalls) == 0 || tools == nil {
			content = result.Content
			break
		}

		assistant := domain.Message{
			Role:      domain.RoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		}
		msgs = append(msgs, assistant)
		a.memory.Append(conversationID, assistant)

		for _, call := range result.ToolCalls {
			payload := executor.Execute(ctx, call)
			invocations = append(invocations, toolInvocation{Tool: call.Name, Payload: payload})

			toolMsg := domain.Message{
				Role:       domain.RoleTool,
				Content:    payload,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			}
			msgs = append(msgs, toolMsg)
			a.memory.Append(conversationID, toolMsg)
		}
	}

	if streamed == 0 && content != "" && onToken != nil {
		onToken(content)
	}

	a.memory.Append(conversationID, domain.Message{Role: domain.RoleAssistant, Content: content})
	a.persist(ctx, userID, conversationID, userMessage, content)

	return &domain.TurnResult{
		Content:   content,
		Citations: extractCitations(invocations),
	}, nil
}

// ClearConversation drops the in-process memory for a conversation.
func (a *Agent) ClearConversation(conversationID string) {
	a.memory.Clear(conversationID)
}

// persist writes the user and assistant turns to the durable store.
// Tool traffic stays in process memory only. Store failures degrade to
// a warning so a storage hiccup never fails an answered turn.
func (a *Agent) persist(ctx context.Context, userID, conversationID, userMessage, answer string) {
	now := time.Now().UTC()
	pairs := []domain.StoredMessage{
		{ID: uuid.NewString(), ConversationID: conversationID, UserID: userID, Role: domain.RoleUser, Content: userMessage, CreatedAt: now},
		{ID: uuid.NewString(), ConversationID: conversationID, UserID: userID, Role: domain.RoleAssistant, Content: answer, CreatedAt: now.Add(time.Millisecond)},
	}
	for _, msg := range pairs {
		if err := a.messages.Append(ctx, msg); err != nil {
			logger.Warn("Failed to persist %s message for conversation %s: %v", msg.Role, conversationID, err)
		}
	}
}
