package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-hq/concierge/internal/adapters/driven/storage/memory"
	"github.com/concierge-hq/concierge/internal/core/domain"
)

func TestConversationMemory_RehydratesOnce(t *testing.T) {
	store := memory.NewMessageStore()
	require.NoError(t, store.Append(context.Background(), domain.StoredMessage{
		ID:             "m1",
		ConversationID: "conv-1",
		UserID:         "user-1",
		Role:           domain.RoleUser,
		Content:        "hello",
		CreatedAt:      time.Now(),
	}))

	mem := newConversationMemory(store)
	history := mem.History(context.Background(), "conv-1")
	require.Len(t, history, 1)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)

	// Later durable writes are not re-read while the buffer is live.
	require.NoError(t, store.Append(context.Background(), domain.StoredMessage{
		ID: "m2", ConversationID: "conv-1", Role: domain.RoleUser, Content: "again", CreatedAt: time.Now(),
	}))
	assert.Len(t, mem.History(context.Background(), "conv-1"), 1)
}

func TestConversationMemory_AppendAndCopy(t *testing.T) {
	mem := newConversationMemory(memory.NewMessageStore())

	mem.Append("conv-1", domain.Message{Role: domain.RoleUser, Content: "question"})
	mem.Append("conv-1", domain.Message{Role: domain.RoleAssistant, Content: "answer"})

	history := mem.History(context.Background(), "conv-1")
	require.Len(t, history, 2)

	// Mutating the returned slice must not leak into the buffer.
	history[0].Content = "mutated"
	assert.Equal(t, "question", mem.History(context.Background(), "conv-1")[0].Content)
}

func TestConversationMemory_ConversationsAreIsolated(t *testing.T) {
	mem := newConversationMemory(memory.NewMessageStore())

	mem.Append("conv-1", domain.Message{Role: domain.RoleUser, Content: "one"})
	mem.Append("conv-2", domain.Message{Role: domain.RoleUser, Content: "two"})

	assert.Len(t, mem.History(context.Background(), "conv-1"), 1)
	assert.Len(t, mem.History(context.Background(), "conv-2"), 1)
}

func TestConversationMemory_ClearRehydrates(t *testing.T) {
	store := memory.NewMessageStore()
	mem := newConversationMemory(store)

	mem.Append("conv-1", domain.Message{Role: domain.RoleTool, Content: "transient"})
	require.NoError(t, store.Append(context.Background(), domain.StoredMessage{
		ID: "m1", ConversationID: "conv-1", Role: domain.RoleUser, Content: "durable", CreatedAt: time.Now(),
	}))

	mem.Clear("conv-1")

	history := mem.History(context.Background(), "conv-1")
	require.Len(t, history, 1)
	assert.Equal(t, "durable", history[0].Content)
}
