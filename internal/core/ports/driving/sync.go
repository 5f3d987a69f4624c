package driving

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// SyncEngine drives extraction, chunking, embedding, vector upsert and
// ledger updates for one provider.
type SyncEngine interface {
	// Sync synchronises one user's provider data. With force true every
	// record is reprocessed regardless of ledger state. No-ops if the
	// provider is not connected.
	Sync(ctx context.Context, userID string, provider domain.Provider, force bool) error

	// DeleteUserData removes all vector records and ledger entries for
	// a (user, provider). Must be called before the account row itself
	// is deleted so a re-connect starts from empty state.
	DeleteUserData(ctx context.Context, userID string, provider domain.Provider) error
}

// SyncQueue runs sync jobs in the background, decoupled from the
// request path that triggered them. A sync failure never fails the
// OAuth flow: job errors are logged and swallowed.
type SyncQueue interface {
	// Submit enqueues a sync job without blocking. Returns false if the
	// queue is full or stopped; the job is dropped in that case.
	Submit(userID string, provider domain.Provider, force bool) bool

	// Stop drains in-flight jobs and shuts the workers down.
	Stop()
}
