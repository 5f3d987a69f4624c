package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// TokenProvider provides access tokens for authenticated API calls.
// Implementations refresh transparently when the token is within the
// expiry safety margin and persist refreshed credentials back to the
// account store.
type TokenProvider interface {
	// Token returns a valid access token, refreshing first if the
	// current one expires within the safety margin. Returns
	// domain.ErrAccountNotConnected if there is no account and
	// domain.ErrAuthExpired if refresh is impossible or rejected.
	Token(ctx context.Context) (string, error)

	// Invalidate drops any cached token so the next Token call hits the
	// store and refreshes. Called after an upstream 401.
	Invalidate()
}

// TokenProviderFactory builds token providers bound to one
// (user, provider) account.
type TokenProviderFactory interface {
	// For returns the token provider for a user's provider account.
	For(userID string, provider domain.Provider) TokenProvider
}
