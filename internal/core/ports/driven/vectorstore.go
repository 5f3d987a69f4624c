package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// VectorStore provides semantic similarity storage and search, one
// collection per provider. The sync engine is the only writer.
type VectorStore interface {
	// EnsureCollection creates the provider's collection if missing.
	EnsureCollection(ctx context.Context, provider domain.Provider, dimensions int) error

	// Upsert writes a batch of vector records. Identity is
	// (record, chunk index) within the collection, so re-upserting a
	// record's chunks overwrites the previous ones.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Search finds the topK nearest chunks for one user.
	Search(ctx context.Context, provider domain.Provider, userID string, vector []float32, topK int) ([]domain.SearchHit, error)

	// DeleteRecord removes every chunk of one source record for a user.
	// Tolerates nothing to delete.
	DeleteRecord(ctx context.Context, provider domain.Provider, userID, recordID string) error

	// DeleteUser removes every record for a user in the provider's
	// collection. Other users' data is untouched.
	DeleteUser(ctx context.Context, provider domain.Provider, userID string) error

	// Close releases resources.
	Close() error
}
