package memory

import (
	"context"
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure MessageStore implements the interface.
var _ driven.MessageStore = (*MessageStore)(nil)

// MessageStore is an in-memory implementation of driven.MessageStore.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]domain.StoredMessage
}

// NewMessageStore creates a new in-memory message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[string][]domain.StoredMessage),
	}
}

// Append stores one message.
func (s *MessageStore) Append(_ context.Context, msg domain.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

// List returns a conversation's messages in creation order.
func (s *MessageStore) List(_ context.Context, conversationID string) ([]domain.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	out := make([]domain.StoredMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
