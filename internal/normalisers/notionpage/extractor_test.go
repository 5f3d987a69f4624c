package notionpage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

func rawPage(t *testing.T, page Page) *domain.RawRecord {
	t.Helper()
	data, err := json.Marshal(page)
	require.NoError(t, err)
	return &domain.RawRecord{
		Provider: domain.ProviderNotion,
		ID:       page.ID,
		MIMEType: MIMEType,
		Content:  data,
	}
}

func TestExtract_FlattensBlockTree(t *testing.T) {
	e := New()

	page := Page{
		ID:    "page-1",
		Title: "Onboarding",
		Blocks: []Block{
			{Type: "heading_1", Text: "Welcome"},
			{Type: "paragraph", Text: "First steps."},
			{Type: "bulleted_list_item", Text: "Item one", Children: []Block{
				{Type: "bulleted_list_item", Text: "Nested item"},
			}},
			{Type: "paragraph", Text: "  "},
			{Type: "unsupported", Text: "should vanish"},
		},
	}

	out, err := e.Extract(context.Background(), rawPage(t, page))
	require.NoError(t, err)

	assert.Equal(t, "Onboarding", out.Title)
	assert.Equal(t, "Welcome\nFirst steps.\nItem one\nNested item", out.Content)
}

func TestExtract_EmptyPage(t *testing.T) {
	e := New()

	out, err := e.Extract(context.Background(), rawPage(t, Page{ID: "p", Title: "Empty"}))
	require.NoError(t, err)
	assert.Equal(t, "", out.Content)
}

func TestExtract_TitleFallback(t *testing.T) {
	e := New()

	raw := rawPage(t, Page{ID: "p"})
	raw.Title = "Listing title"

	out, err := e.Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Listing title", out.Title)
}

func TestExtract_Malformed(t *testing.T) {
	e := New()

	_, err := e.Extract(context.Background(), &domain.RawRecord{
		MIMEType: MIMEType,
		Content:  []byte("{not json"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
