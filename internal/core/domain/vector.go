package domain

// MaxVectorContent is the payload content cap per vector record.
const MaxVectorContent = 10000

// VectorRecord is one indexed chunk as stored in the vector index.
// Identity is (record, chunk index) scoped by the provider's collection,
// so re-syncing a record overwrites its previous vectors.
type VectorRecord struct {
	// UserID scopes the record to its owner; all searches and deletes
	// filter on this field.
	UserID string

	// Provider selects the collection.
	Provider Provider

	// RecordID is the source record (page ID, message ID).
	RecordID string

	// ChunkIndex is the chunk ordinal within the record. Always zero for
	// email, which is indexed as a single chunk.
	ChunkIndex int

	// Title is the page title or email subject.
	Title string

	// Sender is the email sender, empty for documents.
	Sender string

	// Content is the chunk text, capped at MaxVectorContent characters.
	Content string

	// Embedding is the chunk vector.
	Embedding []float32
}

// SearchHit is one result of a semantic search against a collection.
type SearchHit struct {
	// RecordID is the matched source record.
	RecordID string

	// Title is the stored title or subject.
	Title string

	// Sender is the stored sender (email collections only).
	Sender string

	// Content is the stored chunk text.
	Content string

	// Score is the cosine similarity reported by the index.
	Score float32
}
