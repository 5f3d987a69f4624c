package services

import (
	"context"
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
	"github.com/concierge-hq/concierge/internal/logger"
)

// conversationMemory holds per-conversation working history in process.
// Each conversation rehydrates once from the durable message store and
// then lives in memory; tool traffic from the current session stays in
// the buffer but is never persisted.
type conversationMemory struct {
	store driven.MessageStore

	mu      sync.Mutex
	buffers map[string]*conversationBuffer
}

type conversationBuffer struct {
	mu       sync.Mutex
	hydrated bool
	messages []domain.Message
}

func newConversationMemory(store driven.MessageStore) *conversationMemory {
	return &conversationMemory{
		store:   store,
		buffers: make(map[string]*conversationBuffer),
	}
}

func (m *conversationMemory) buffer(conversationID string) *conversationBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.buffers[conversationID]
	if !ok {
		buf = &conversationBuffer{}
		m.buffers[conversationID] = buf
	}
	return buf
}

// History returns a copy of the conversation's working history,
// rehydrating from the durable store on first access. A failed
// rehydration degrades to an empty history rather than failing the
// turn.
func (m *conversationMemory) History(ctx context.Context, conversationID string) []domain.Message {
	buf := m.buffer(conversationID)
	buf.mu.Lock()
	defer buf.mu.Unlock()

	if !buf.hydrated {
		buf.hydrated = true
		stored, err := m.store.List(ctx, conversationID)
		if err != nil {
			logger.Warn("Failed to rehydrate conversation %s: %v", conversationID, err)
		}
		for _, msg := range stored {
			buf.messages = append(buf.messages, domain.Message{Role: msg.Role, Content: msg.Content})
		}
	}

	out := make([]domain.Message, len(buf.messages))
	copy(out, buf.messages)
	return out
}

// Append adds messages to the conversation's working history.
func (m *conversationMemory) Append(conversationID string, msgs ...domain.Message) {
	buf := m.buffer(conversationID)
	buf.mu.Lock()
	defer buf.mu.Unlock()
	buf.messages = append(buf.messages, msgs...)
}

// Clear drops the in-process buffer. The next turn rehydrates from the
// durable store again.
func (m *conversationMemory) Clear(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, conversationID)
}
