package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-hq/concierge/internal/adapters/driven/storage/memory"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// ---- fakes ----

type chatScript struct {
	tokens []string
	result *driven.ChatResult
	err    error
}

type chatCall struct {
	messages []domain.Message
	toolsNil bool
}

// scriptedChat replays canned responses in order, repeating the last
// one when the script runs out.
type scriptedChat struct {
	script []chatScript
	calls  []chatCall
}

func (c *scriptedChat) Chat(ctx context.Context, msgs []domain.Message, tools []driven.ToolDefinition) (*driven.ChatResult, error) {
	return c.ChatStream(ctx, msgs, tools, nil)
}

func (c *scriptedChat) ChatStream(_ context.Context, msgs []domain.Message, tools []driven.ToolDefinition, onToken func(string)) (*driven.ChatResult, error) {
	copied := make([]domain.Message, len(msgs))
	copy(copied, msgs)
	c.calls = append(c.calls, chatCall{messages: copied, toolsNil: tools == nil})

	i := len(c.calls) - 1
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	s := c.script[i]
	if s.err != nil {
		return nil, s.err
	}
	if onToken != nil {
		for _, tok := range s.tokens {
			onToken(tok)
		}
	}
	return s.result, nil
}

func (c *scriptedChat) ModelName() string { return "scripted" }
func (c *scriptedChat) Close() error      { return nil }

type scriptedExecutor struct {
	payloads map[string]string
	calls    []domain.ToolCall
}

func (e *scriptedExecutor) Definitions() []driven.ToolDefinition {
	return []driven.ToolDefinition{{
		Name:        domain.ToolSearchDocuments,
		Description: "search",
		Parameters:  map[string]any{"type": "object"},
	}}
}

func (e *scriptedExecutor) Execute(_ context.Context, call domain.ToolCall) string {
	e.calls = append(e.calls, call)
	if payload, ok := e.payloads[call.Name]; ok {
		return payload
	}
	return `{"error":"unknown tool"}`
}

type toolsProvider struct {
	executor *scriptedExecutor
	users    []string
}

func (p *toolsProvider) ForUser(userID string) driven.ToolExecutor {
	p.users = append(p.users, userID)
	return p.executor
}

// ---- harness ----

type agentHarness struct {
	agent    *Agent
	chat     *scriptedChat
	executor *scriptedExecutor
	provider *toolsProvider
	store    *memory.MessageStore
}

func newAgentHarness(t *testing.T, script ...chatScript) *agentHarness {
	t.Helper()
	h := &agentHarness{
		chat:     &scriptedChat{script: script},
		executor: &scriptedExecutor{payloads: map[string]string{}},
		store:    memory.NewMessageStore(),
	}
	h.provider = &toolsProvider{executor: h.executor}
	h.agent = NewAgent(h.chat, h.provider, h.store)
	return h
}

func roles(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Role
	}
	return out
}

// ---- tests ----

func TestRunTurn_DirectAnswerStreams(t *testing.T) {
	h := newAgentHarness(t, chatScript{
		tokens: []string{"The ", "roadmap ", "is done."},
		result: &driven.ChatResult{Content: "The roadmap is done."},
	})

	var streamed strings.Builder
	result, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "status?", func(tok string) {
		streamed.WriteString(tok)
	})

	require.NoError(t, err)
	assert.Equal(t, "The roadmap is done.", result.Content)
	assert.Equal(t, result.Content, streamed.String())
	assert.Empty(t, result.Citations)
	assert.Equal(t, []string{"user-1"}, h.provider.users)

	require.Len(t, h.chat.calls, 1)
	assert.Equal(t, []string{domain.RoleSystem, domain.RoleUser}, roles(h.chat.calls[0].messages))

	stored, err := h.store.List(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, domain.RoleUser, stored[0].Role)
	assert.Equal(t, domain.RoleAssistant, stored[1].Role)
	assert.Equal(t, "The roadmap is done.", stored[1].Content)
}

func TestRunTurn_ToolLoopProducesCitations(t *testing.T) {
	h := newAgentHarness(t,
		chatScript{result: &driven.ChatResult{ToolCalls: []domain.ToolCall{
			{ID: "call-1", Name: domain.ToolSearchDocuments, Arguments: `{"query":"roadmap"}`},
		}}},
		chatScript{
			tokens: []string{"Found it."},
			result: &driven.ChatResult{Content: "Found it."},
		},
	)
	h.executor.payloads[domain.ToolSearchDocuments] = `{"results":[{"title":"Roadmap"}],"count":1}`

	result, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "where is the roadmap?", nil)

	require.NoError(t, err)
	assert.Equal(t, "Found it.", result.Content)
	assert.Equal(t, []domain.Citation{
		{Tool: domain.ToolSearchDocuments, Title: "Roadmap"},
	}, result.Citations)

	require.Len(t, h.executor.calls, 1)
	assert.Equal(t, `{"query":"roadmap"}`, h.executor.calls[0].Arguments)

	// Second model call sees the tool round trip.
	require.Len(t, h.chat.calls, 2)
	assert.Equal(t, []string{
		domain.RoleSystem, domain.RoleUser, domain.RoleAssistant, domain.RoleTool,
	}, roles(h.chat.calls[1].messages))
	toolMsg := h.chat.calls[1].messages[3]
	assert.Equal(t, "call-1", toolMsg.ToolCallID)
	assert.Equal(t, domain.ToolSearchDocuments, toolMsg.ToolName)
}

func TestRunTurn_FallbackEmitsWholeAnswer(t *testing.T) {
	h := newAgentHarness(t,
		chatScript{result: &driven.ChatResult{ToolCalls: []domain.ToolCall{
			{ID: "call-1", Name: domain.ToolSearchDocuments, Arguments: `{}`},
		}}},
		chatScript{result: &driven.ChatResult{Content: "Nothing found."}},
	)

	var tokens []string
	result, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "anything?", func(tok string) {
		tokens = append(tokens, tok)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Nothing found."}, tokens)
	assert.Equal(t, "Nothing found.", result.Content)
}

func TestRunTurn_ModelFailureSurfaces(t *testing.T) {
	h := newAgentHarness(t, chatScript{err: domain.ErrModelUnavailable})

	_, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "hello", nil)

	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	stored, listErr := h.store.List(context.Background(), "conv-1")
	require.NoError(t, listErr)
	assert.Empty(t, stored)
}

func TestRunTurn_SecondTurnCarriesHistory(t *testing.T) {
	h := newAgentHarness(t, chatScript{result: &driven.ChatResult{Content: "ok"}})

	_, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "first", nil)
	require.NoError(t, err)
	_, err = h.agent.RunTurn(context.Background(), "user-1", "conv-1", "second", nil)
	require.NoError(t, err)

	require.Len(t, h.chat.calls, 2)
	assert.Equal(t, []string{
		domain.RoleSystem, domain.RoleUser, domain.RoleAssistant, domain.RoleUser,
	}, roles(h.chat.calls[1].messages))
}

func TestRunTurn_ToolLoopIsBounded(t *testing.T) {
	h := newAgentHarness(t,
		chatScript{result: &driven.ChatResult{ToolCalls: []domain.ToolCall{
			{ID: "call", Name: domain.ToolSearchDocuments, Arguments: `{}`},
		}}},
	)
	h.executor.payloads[domain.ToolSearchDocuments] = `{"results":[],"count":0}`

	result, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "loop", nil)

	require.NoError(t, err)
	require.Len(t, h.chat.calls, maxToolIterations+1)
	for _, call := range h.chat.calls[:maxToolIterations] {
		assert.False(t, call.toolsNil)
	}
	// The final call withholds tools to force an answer.
	assert.True(t, h.chat.calls[maxToolIterations].toolsNil)
	assert.Len(t, h.executor.calls, maxToolIterations)
	assert.NotNil(t, result)
}

func TestClearConversation_DropsWorkingMemory(t *testing.T) {
	h := newAgentHarness(t, chatScript{result: &driven.ChatResult{Content: "ok"}})

	_, err := h.agent.RunTurn(context.Background(), "user-1", "conv-1", "first", nil)
	require.NoError(t, err)

	h.agent.ClearConversation("conv-1")

	_, err = h.agent.RunTurn(context.Background(), "user-1", "conv-1", "second", nil)
	require.NoError(t, err)

	// Rehydrated from the durable store, so the prior turn survives.
	require.Len(t, h.chat.calls, 2)
	assert.Equal(t, []string{
		domain.RoleSystem, domain.RoleUser, domain.RoleAssistant, domain.RoleUser,
	}, roles(h.chat.calls[1].messages))
}
