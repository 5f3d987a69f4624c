// Package notion implements the workspace page connector against the
// Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/concierge-hq/concierge/internal/connectors/ratelimit"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
	"github.com/concierge-hq/concierge/internal/normalisers/notionpage"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// API constants.
const (
	DefaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
	pageSize       = 100

	// The API allows an average of 3 requests per second.
	requestsPerSecond = 3.0
)

// Connector lists and fetches workspace pages for one user.
type Connector struct {
	baseURL string
	tokens  driven.TokenProvider
	client  *http.Client
	limiter *ratelimit.Limiter
}

// Option configures the connector.
type Option func(*Connector)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Connector) { c.baseURL = url }
}

// New creates a connector using the given token provider.
func New(tokens driven.TokenProvider, opts ...Option) *Connector {
	c := &Connector{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: ratelimit.New(ratelimit.Config{RequestsPerSecond: requestsPerSecond, BurstSize: 5}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the connector's provider identifier.
func (c *Connector) Provider() domain.Provider {
	return domain.ProviderNotion
}

// Capabilities returns what this connector supports. Pages are
// editable, so the sync engine compares version timestamps.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{}
}

// searchResponse is the /search endpoint page.
type searchResponse struct {
	Results []struct {
		ID             string          `json:"id"`
		LastEditedTime time.Time       `json:"last_edited_time"`
		Properties     json.RawMessage `json:"properties"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// List enumerates every page shared with the integration, following
// pagination cursors until exhausted.
func (c *Connector) List(ctx context.Context) ([]domain.RemoteRecord, error) {
	var records []domain.RemoteRecord
	cursor := ""
	for {
		body := map[string]any{
			"filter":    map[string]string{"property": "object", "value": "page"},
			"page_size": pageSize,
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var page searchResponse
		if err := c.do(ctx, http.MethodPost, "/search", body, &page); err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}

		for _, result := range page.Results {
			records = append(records, domain.RemoteRecord{
				ID:      result.ID,
				Title:   titleFromProperties(result.Properties),
				Version: result.LastEditedTime,
			})
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return records, nil
}

// Fetch walks a page's block tree and serializes it for extraction.
func (c *Connector) Fetch(ctx context.Context, record domain.RemoteRecord) (*domain.RawRecord, error) {
	blocks, err := c.fetchBlocks(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", record.ID, err)
	}

	page := notionpage.Page{
		ID:     record.ID,
		Title:  record.Title,
		Blocks: blocks,
	}
	content, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("marshal page %s: %w", record.ID, err)
	}

	return &domain.RawRecord{
		Provider: domain.ProviderNotion,
		ID:       record.ID,
		Title:    record.Title,
		Version:  record.Version,
		MIMEType: notionpage.MIMEType,
		Content:  content,
	}, nil
}

// blocksResponse is one page of /blocks/{id}/children.
type blocksResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// apiBlock is the subset of the block object the extractor needs. The
// typed payload is looked up by the block's own type name.
type apiBlock struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

// fetchBlocks retrieves a block's children recursively, depth-first.
func (c *Connector) fetchBlocks(ctx context.Context, blockID string) ([]notionpage.Block, error) {
	var blocks []notionpage.Block
	cursor := ""
	for {
		path := fmt.Sprintf("/blocks/%s/children?page_size=%d", blockID, pageSize)
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var page blocksResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Results {
			var meta apiBlock
			if err := json.Unmarshal(raw, &meta); err != nil {
				continue
			}

			block := notionpage.Block{
				Type: meta.Type,
				Text: blockText(raw, meta.Type),
			}
			if meta.HasChildren {
				children, err := c.fetchBlocks(ctx, meta.ID)
				if err != nil {
					return nil, err
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return blocks, nil
}

// blockText extracts the concatenated plain text of a block's rich
// text array, wherever the typed payload keeps it.
func blockText(raw json.RawMessage, blockType string) string {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return ""
	}
	payload, ok := outer[blockType]
	if !ok {
		return ""
	}

	var typed struct {
		RichText []struct {
			PlainText string `json:"plain_text"`
		} `json:"rich_text"`
	}
	if err := json.Unmarshal(payload, &typed); err != nil {
		return ""
	}

	text := ""
	for _, rt := range typed.RichText {
		text += rt.PlainText
	}
	return text
}

// titleFromProperties finds the title property of a page. Pages keep
// their title under a property of type "title" whose name varies.
func titleFromProperties(properties json.RawMessage) string {
	var props map[string]struct {
		Type  string `json:"type"`
		Title []struct {
			PlainText string `json:"plain_text"`
		} `json:"title"`
	}
	if err := json.Unmarshal(properties, &props); err != nil {
		return ""
	}

	for _, prop := range props {
		if prop.Type != "title" {
			continue
		}
		title := ""
		for _, rt := range prop.Title {
			title += rt.PlainText
		}
		return title
	}
	return ""
}

// do performs one API request with rate limiting and auth, decoding
// the JSON response into out.
func (c *Connector) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Invalidate()
		return fmt.Errorf("%w: notion API status 401", domain.ErrAuthExpired)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.limiter.RecordRateLimitError(retryAfter)
		return fmt.Errorf("%w: notion API status 429", domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: notion API status %d: %s", domain.ErrUpstream, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}
