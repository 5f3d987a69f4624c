package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// Connector fetches records from one provider on behalf of one user.
// Implementations handle pagination and rate limiting internally and
// wrap authentication failures with domain.ErrAuthExpired so the sync
// engine can abort the run cleanly.
type Connector interface {
	// Provider returns the connector's provider identifier.
	Provider() domain.Provider

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// List enumerates all source records visible to the sync run,
	// following pagination cursors until exhausted. Connectors bound
	// their own volume (the gmail connector restricts the listing to
	// recent messages; the notion connector walks the whole tree since
	// edits may land anywhere).
	List(ctx context.Context) ([]domain.RemoteRecord, error)

	// Fetch retrieves the full content of one listed record, walking
	// nested block or MIME part trees as needed.
	Fetch(ctx context.Context, record domain.RemoteRecord) (*domain.RawRecord, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes sync-relevant connector behaviour.
type ConnectorCapabilities struct {
	// ImmutableRecords indicates records never change after creation.
	// The sync engine then skips any record that has ever been synced
	// instead of comparing version timestamps. Email is immutable;
	// workspace pages are not.
	ImmutableRecords bool

	// SingleChunk indicates each record is indexed as one chunk instead
	// of being split. Email bodies are already bounded per message.
	SingleChunk bool
}

// ConnectorFactory builds a connector for a (user, provider) pair,
// wiring in the user's token provider.
type ConnectorFactory interface {
	// Create returns a connector for the given user and provider.
	// Returns domain.ErrUnsupportedProvider for unknown providers.
	Create(ctx context.Context, userID string, provider domain.Provider) (Connector, error)
}
