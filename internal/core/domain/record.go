package domain

import "time"

// RemoteRecord is a provider listing entry: enough to decide whether
// the record needs processing without fetching its content.
type RemoteRecord struct {
	// ID is the stable provider-side identifier.
	ID string

	// Title is the page title or email subject as reported by the
	// listing endpoint. May be empty; the extractor refines it.
	Title string

	// Version is the provider-reported version timestamp (edit time for
	// pages, send time for email).
	Version time.Time
}

// RawRecord is the full content of one source record as fetched by a
// connector, before extraction.
type RawRecord struct {
	// Provider is the record's source.
	Provider Provider

	// ID is the stable provider-side identifier.
	ID string

	// Title carried over from the listing.
	Title string

	// Version carried over from the listing.
	Version time.Time

	// MIMEType identifies the payload format (e.g. "message/rfc822",
	// "application/vnd.concierge.notion-page+json").
	MIMEType string

	// Content is the raw payload bytes.
	Content []byte

	// Metadata contains connector-specific key-value pairs (sender,
	// thread id, parent page, ...).
	Metadata map[string]any
}

// ExtractedRecord is the plain-text form of a record after extraction.
type ExtractedRecord struct {
	// Title is the refined title (email subject, page title).
	Title string

	// Content is the plain text with markup, boilerplate and tracking
	// artifacts stripped. May be empty.
	Content string

	// Sender is the "From" address for email records, empty otherwise.
	Sender string
}

// Chunk is a bounded-size slice of extracted text prepared for
// embedding.
type Chunk struct {
	// Index is the ordinal position within the record.
	Index int

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation, populated by the embedding
	// service before indexing.
	Embedding []float32
}
