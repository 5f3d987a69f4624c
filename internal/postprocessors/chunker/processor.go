// Package chunker provides fixed-size text chunking with overlap.
package chunker

import (
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure the processors implement the interface.
var (
	_ driven.Chunker = (*Processor)(nil)
	_ driven.Chunker = (*WholeText)(nil)
)

// Processor splits text into fixed-size overlapping chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must stay below chunk size or the window never advances
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "fixed"
}

// Chunk splits text into overlapping fixed-size segments.
func (p *Processor) Chunk(text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	contentLen := len(text)
	estimated := (contentLen / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	index := 0
	start := 0
	for start < contentLen {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			Index:   index,
			Content: text[start:end],
		})
		index++

		start += p.chunkSize - p.overlap
	}

	return chunks
}

// WholeText indexes the entire text as a single chunk. Used for email,
// where volume per message is already bounded.
type WholeText struct{}

// NewWholeText creates a single-chunk processor.
func NewWholeText() *WholeText {
	return &WholeText{}
}

// Name returns the processor name.
func (w *WholeText) Name() string {
	return "whole"
}

// Chunk returns the text as one chunk, or nothing for empty text.
func (w *WholeText) Chunk(text string) []domain.Chunk {
	if text == "" {
		return nil
	}
	return []domain.Chunk{{Index: 0, Content: text}}
}
