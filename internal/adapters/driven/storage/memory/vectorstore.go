package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore
// using exact cosine similarity. Identity is (record, chunk index)
// within a collection, matching the real index.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]map[pointKey]domain.VectorRecord
}

type pointKey struct {
	recordID   string
	chunkIndex int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]map[pointKey]domain.VectorRecord),
	}
}

// EnsureCollection creates the provider's collection if missing.
func (s *VectorStore) EnsureCollection(_ context.Context, provider domain.Provider, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(provider.Collection())
	return nil
}

func (s *VectorStore) ensureLocked(collection string) map[pointKey]domain.VectorRecord {
	points, ok := s.collections[collection]
	if !ok {
		points = make(map[pointKey]domain.VectorRecord)
		s.collections[collection] = points
	}
	return points
}

// Upsert writes a batch of vector records, overwriting by identity.
func (s *VectorStore) Upsert(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		points := s.ensureLocked(rec.Provider.Collection())
		points[pointKey{rec.RecordID, rec.ChunkIndex}] = rec
	}
	return nil
}

// Search finds the topK nearest chunks for one user.
func (s *VectorStore) Search(_ context.Context, provider domain.Provider, userID string, vector []float32, topK int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		hit   domain.SearchHit
		score float32
	}

	var candidates []scored
	for _, rec := range s.collections[provider.Collection()] {
		if rec.UserID != userID {
			continue
		}
		score := cosine(vector, rec.Embedding)
		candidates = append(candidates, scored{
			hit: domain.SearchHit{
				RecordID: rec.RecordID,
				Title:    rec.Title,
				Sender:   rec.Sender,
				Content:  rec.Content,
				Score:    score,
			},
			score: score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}
	hits := make([]domain.SearchHit, 0, topK)
	for _, c := range candidates[:topK] {
		hits = append(hits, c.hit)
	}
	return hits, nil
}

// DeleteRecord removes every chunk of one source record for a user.
func (s *VectorStore) DeleteRecord(_ context.Context, provider domain.Provider, userID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := s.collections[provider.Collection()]
	for key, rec := range points {
		if key.recordID == recordID && rec.UserID == userID {
			delete(points, key)
		}
	}
	return nil
}

// DeleteUser removes every record for a user in the provider's collection.
func (s *VectorStore) DeleteUser(_ context.Context, provider domain.Provider, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := s.collections[provider.Collection()]
	for key, rec := range points {
		if rec.UserID == userID {
			delete(points, key)
		}
	}
	return nil
}

// Count returns the number of stored records for a user in the
// provider's collection. Test helper.
func (s *VectorStore) Count(provider domain.Provider, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.collections[provider.Collection()] {
		if rec.UserID == userID {
			n++
		}
	}
	return n
}

// Records returns a user's stored records for one source record.
// Test helper.
func (s *VectorStore) Records(provider domain.Provider, userID, recordID string) []domain.VectorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.VectorRecord
	for _, rec := range s.collections[provider.Collection()] {
		if rec.UserID == userID && rec.RecordID == recordID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

// cosine computes cosine similarity between two vectors.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
