package normalisers

import (
	"context"
	"fmt"
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches raw records to extractors by MIME type.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.Extractor),
	}
}

// Register adds an extractor for each of its supported MIME types.
// Later registrations win on conflict.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range extractor.SupportedMIMETypes() {
		r.extractors[mt] = extractor
	}
}

// Extract transforms a raw record using the extractor registered for
// its MIME type.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawRecord) (*domain.ExtractedRecord, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	extractor, ok := r.extractors[raw.MIMEType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %q", domain.ErrInvalidInput, raw.MIMEType)
	}
	return extractor.Extract(ctx, raw)
}
