package auth

import (
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure Factory implements the TokenProviderFactory interface.
var _ driven.TokenProviderFactory = (*Factory)(nil)

// Factory hands out token providers per (user, provider) pair, reusing
// them so the token cache stays effective across calls.
type Factory struct {
	accounts  driven.AccountStore
	endpoints Endpoints

	mu        sync.Mutex
	providers map[factoryKey]*AccountTokenProvider
}

type factoryKey struct {
	userID   string
	provider domain.Provider
}

// NewFactory creates a token provider factory.
func NewFactory(accounts driven.AccountStore, endpoints Endpoints) *Factory {
	return &Factory{
		accounts:  accounts,
		endpoints: endpoints,
		providers: make(map[factoryKey]*AccountTokenProvider),
	}
}

// For returns the token provider for one connected account.
func (f *Factory) For(userID string, provider domain.Provider) driven.TokenProvider {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := factoryKey{userID, provider}
	if tp, ok := f.providers[key]; ok {
		return tp
	}
	tp := NewAccountTokenProvider(userID, provider, f.accounts, f.endpoints)
	f.providers[key] = tp
	return tp
}
