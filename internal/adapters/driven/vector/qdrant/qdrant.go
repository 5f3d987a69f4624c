// Package qdrant provides a vector store adapter backed by the Qdrant
// vector database over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default connection values.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334
)

// Config configures the Qdrant connection.
type Config struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey for authenticated access (optional).
	APIKey string

	// UseTLS enables TLS connections.
	UseTLS bool
}

// VectorStore stores document chunks in Qdrant, one collection per
// provider.
type VectorStore struct {
	client *qdrant.Client
}

// NewVectorStore connects to Qdrant.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &VectorStore{client: client}, nil
}

// EnsureCollection creates the provider's collection if it does not
// exist yet. Cosine distance matches the normalized embeddings the
// pipeline produces.
func (s *VectorStore) EnsureCollection(ctx context.Context, provider domain.Provider, dims int) error {
	collection := provider.Collection()

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: check collection %s: %v", domain.ErrVectorIndex, collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("%w: create collection %s: %v", domain.ErrVectorIndex, collection, err)
	}
	return nil
}

// Upsert writes a batch of chunk records. Point IDs are deterministic
// so re-syncing a record overwrites its previous chunks.
func (s *VectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	byCollection := make(map[string][]*qdrant.PointStruct)
	for _, rec := range records {
		collection := rec.Provider.Collection()
		payload := map[string]*qdrant.Value{
			"user_id":                    qdrant.NewValueString(rec.UserID),
			rec.Provider.RecordIDField(): qdrant.NewValueString(rec.RecordID),
			"title":                      qdrant.NewValueString(rec.Title),
			"chunk_index":                qdrant.NewValueInt(int64(rec.ChunkIndex)),
			"content":                    qdrant.NewValueString(truncate(rec.Content, domain.MaxVectorContent)),
		}
		if rec.Sender != "" {
			payload["sender"] = qdrant.NewValueString(rec.Sender)
		}

		byCollection[collection] = append(byCollection[collection], &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(collection, rec.RecordID, rec.ChunkIndex)),
			Vectors: qdrant.NewVectors(rec.Embedding...),
			Payload: payload,
		})
	}

	for collection, points := range byCollection {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("%w: upsert %d points into %s: %v", domain.ErrVectorIndex, len(points), collection, err)
		}
	}
	return nil
}

// Search finds the topK nearest chunks for one user.
func (s *VectorStore) Search(ctx context.Context, provider domain.Provider, userID string, vector []float32, topK int) ([]domain.SearchHit, error) {
	collection := provider.Collection()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         userFilter(userID),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", domain.ErrVectorIndex, collection, err)
	}

	hits := make([]domain.SearchHit, 0, len(points))
	for _, point := range points {
		hit := domain.SearchHit{Score: point.Score}
		for key, value := range point.Payload {
			switch key {
			case provider.RecordIDField():
				hit.RecordID = value.GetStringValue()
			case "title":
				hit.Title = value.GetStringValue()
			case "sender":
				hit.Sender = value.GetStringValue()
			case "content":
				hit.Content = value.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteRecord removes every chunk of one source record for a user.
func (s *VectorStore) DeleteRecord(ctx context.Context, provider domain.Provider, userID, recordID string) error {
	filter := userFilter(userID)
	filter.Must = append(filter.Must, qdrant.NewMatch(provider.RecordIDField(), recordID))
	return s.deleteByFilter(ctx, provider.Collection(), filter)
}

// DeleteUser removes every record for a user in the provider's
// collection.
func (s *VectorStore) DeleteUser(ctx context.Context, provider domain.Provider, userID string) error {
	return s.deleteByFilter(ctx, provider.Collection(), userFilter(userID))
}

func (s *VectorStore) deleteByFilter(ctx context.Context, collection string, filter *qdrant.Filter) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: check collection %s: %v", domain.ErrVectorIndex, collection, err)
	}
	if !exists {
		// Nothing was ever indexed; nothing to delete.
		return nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: delete from %s: %v", domain.ErrVectorIndex, collection, err)
	}
	return nil
}

// Close closes the Qdrant client.
func (s *VectorStore) Close() error {
	return s.client.Close()
}

// pointID derives a stable UUID for a chunk so re-upserts overwrite
// in place.
func pointID(collection, recordID string, chunkIndex int) string {
	name := fmt.Sprintf("%s/%s/%d", collection, recordID, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func userFilter(userID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("user_id", userID)},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
