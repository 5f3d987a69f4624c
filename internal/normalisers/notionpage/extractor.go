// Package notionpage extracts plain text from workspace page payloads:
// the JSON block tree the notion connector emits after walking a page.
package notionpage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// MIMEType identifies the serialized page block tree.
const MIMEType = "application/vnd.concierge.notion-page+json"

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Page is the serialized form of one workspace page.
type Page struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Block is one content block; children carry the nested tree.
type Block struct {
	Type     string  `json:"type"`
	Text     string  `json:"text"`
	Children []Block `json:"children,omitempty"`
}

// Extractor handles workspace page records.
type Extractor struct{}

// New creates a new page extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Extract flattens the block tree into plain text, one line per block,
// dropping empty and unsupported blocks.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawRecord) (*domain.ExtractedRecord, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var page Page
	if err := json.Unmarshal(raw.Content, &page); err != nil {
		return nil, domain.ErrInvalidInput
	}

	var lines []string
	collectText(page.Blocks, &lines)

	title := page.Title
	if title == "" {
		title = raw.Title
	}

	return &domain.ExtractedRecord{
		Title:   title,
		Content: strings.Join(lines, "\n"),
	}, nil
}

// collectText walks the block tree depth-first, children after their
// parent, so nested bullets read in document order.
func collectText(blocks []Block, lines *[]string) {
	for _, b := range blocks {
		if b.Type == "unsupported" {
			continue
		}
		if text := strings.TrimSpace(b.Text); text != "" {
			*lines = append(*lines, text)
		}
		if len(b.Children) > 0 {
			collectText(b.Children, lines)
		}
	}
}
