package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is an in-memory implementation of driven.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	entries map[ledgerKey]domain.LedgerEntry
}

type ledgerKey struct {
	userID   string
	provider domain.Provider
	recordID string
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[ledgerKey]domain.LedgerEntry),
	}
}

// Get retrieves the entry for one record.
func (s *LedgerStore) Get(_ context.Context, userID string, provider domain.Provider, recordID string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[ledgerKey{userID, provider, recordID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Save stores or updates an entry, stamping SyncedAt when unset.
func (s *LedgerStore) Save(_ context.Context, entry domain.LedgerEntry) error {
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ledgerKey{entry.UserID, entry.Provider, entry.RecordID}] = entry
	return nil
}

// List returns all entries for a user and provider, ordered by record ID.
func (s *LedgerStore) List(_ context.Context, userID string, provider domain.Provider) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.LedgerEntry
	for key, entry := range s.entries {
		if key.userID == userID && key.provider == provider {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RecordID < entries[j].RecordID
	})
	return entries, nil
}

// DeleteForUser removes every entry for a user and provider.
func (s *LedgerStore) DeleteForUser(_ context.Context, userID string, provider domain.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.userID == userID && key.provider == provider {
			delete(s.entries, key)
		}
	}
	return nil
}
