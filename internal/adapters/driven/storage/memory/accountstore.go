package memory

import (
	"context"
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure AccountStore implements the interface.
var _ driven.AccountStore = (*AccountStore)(nil)

// AccountStore is an in-memory implementation of driven.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[accountKey]domain.OAuthAccount
}

type accountKey struct {
	userID   string
	provider domain.Provider
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[accountKey]domain.OAuthAccount),
	}
}

// Get retrieves the account for a user and provider.
func (s *AccountStore) Get(_ context.Context, userID string, provider domain.Provider) (*domain.OAuthAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountKey{userID, provider}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &account, nil
}

// Save stores or updates an account.
func (s *AccountStore) Save(_ context.Context, account domain.OAuthAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountKey{account.UserID, account.Provider}] = account
	return nil
}

// Delete removes the account.
func (s *AccountStore) Delete(_ context.Context, userID string, provider domain.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, accountKey{userID, provider})
	return nil
}
