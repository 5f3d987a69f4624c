package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// AccountStore persists OAuth accounts, one per (user, provider).
type AccountStore interface {
	// Get retrieves the account for a user and provider.
	// Returns domain.ErrNotFound if the provider is not connected.
	Get(ctx context.Context, userID string, provider domain.Provider) (*domain.OAuthAccount, error)

	// Save stores or updates an account. Token refresh mutates the row
	// in place through this method.
	Save(ctx context.Context, account domain.OAuthAccount) error

	// Delete removes the account. Callers must delete the user's vector
	// and ledger data first so a re-connect starts from empty state.
	Delete(ctx context.Context, userID string, provider domain.Provider) error
}

// LedgerStore persists sync ledger entries, unique per
// (user, provider, record).
type LedgerStore interface {
	// Get retrieves the entry for one record.
	// Returns domain.ErrNotFound if the record was never synced.
	Get(ctx context.Context, userID string, provider domain.Provider, recordID string) (*domain.LedgerEntry, error)

	// Save stores or updates an entry.
	Save(ctx context.Context, entry domain.LedgerEntry) error

	// List returns all entries for a user and provider.
	List(ctx context.Context, userID string, provider domain.Provider) ([]domain.LedgerEntry, error)

	// DeleteForUser removes every entry for a user and provider.
	// Tolerates nothing to delete.
	DeleteForUser(ctx context.Context, userID string, provider domain.Provider) error
}

// MessageStore persists chat messages durably. The in-process
// conversation memory rehydrates from here once per conversation.
type MessageStore interface {
	// Append stores one message.
	Append(ctx context.Context, msg domain.StoredMessage) error

	// List returns a conversation's messages in creation order.
	List(ctx context.Context, conversationID string) ([]domain.StoredMessage, error)
}
