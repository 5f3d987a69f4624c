package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// Extractor turns one raw record payload into plain text.
// Each extractor handles specific MIME types (rfc822 email, workspace
// page JSON).
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract produces the plain-text form of a raw record, stripping
	// markup, boilerplate and tracking artifacts.
	Extract(ctx context.Context, raw *domain.RawRecord) (*domain.ExtractedRecord, error)
}

// ExtractorRegistry dispatches raw records to the extractor registered
// for their MIME type.
type ExtractorRegistry interface {
	// Extract transforms a raw record using the matching extractor.
	// Returns domain.ErrInvalidInput if no extractor handles the type.
	Extract(ctx context.Context, raw *domain.RawRecord) (*domain.ExtractedRecord, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)
}

// Chunker splits extracted text into bounded segments for embedding.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk splits text into segments. Empty text yields no chunks.
	Chunk(text string) []domain.Chunk
}
