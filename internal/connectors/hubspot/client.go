// Package hubspot implements the CRM contacts client against the
// HubSpot CRM v3 API.
package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/concierge-hq/concierge/internal/connectors/ratelimit"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.CRMClient = (*Client)(nil)

// API constants.
const (
	DefaultBaseURL = "https://api.hubapi.com"

	// Contacts come in pages of at most 100.
	maxPageSize = 100
)

// Client calls the HubSpot contacts API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New creates a HubSpot client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: ratelimit.New(ratelimit.Config{RequestsPerSecond: 4.0, BurstSize: 8}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type contactsResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Properties struct {
			FirstName string `json:"firstname"`
			LastName  string `json:"lastname"`
			Email     string `json:"email"`
			Company   string `json:"company"`
			Phone     string `json:"phone"`
		} `json:"properties"`
	} `json:"results"`
	Paging *struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// ListContacts fetches up to limit contacts, following pagination as
// needed.
func (c *Client) ListContacts(ctx context.Context, accessToken string, limit int) ([]domain.Contact, error) {
	var contacts []domain.Contact
	after := ""
	for len(contacts) < limit {
		pageSize := limit - len(contacts)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		page, err := c.fetchPage(ctx, accessToken, pageSize, after)
		if err != nil {
			return nil, err
		}

		for _, result := range page.Results {
			name := result.Properties.FirstName
			if result.Properties.LastName != "" {
				if name != "" {
					name += " "
				}
				name += result.Properties.LastName
			}
			contacts = append(contacts, domain.Contact{
				Name:    name,
				Email:   result.Properties.Email,
				Company: result.Properties.Company,
				Phone:   result.Properties.Phone,
			})
		}

		if page.Paging == nil || page.Paging.Next.After == "" {
			break
		}
		after = page.Paging.Next.After
	}
	return contacts, nil
}

func (c *Client) fetchPage(ctx context.Context, accessToken string, pageSize int, after string) (*contactsResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("properties", "firstname,lastname,email,company,phone")
	if after != "" {
		query.Set("after", after)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/crm/v3/objects/contacts?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: hubspot API status 401", domain.ErrAuthExpired)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.limiter.RecordRateLimitError(retryAfter)
		return nil, fmt.Errorf("%w: hubspot API status 429", domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: hubspot API status %d: %s", domain.ErrUpstream, resp.StatusCode, string(body))
	}

	var page contactsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return &page, nil
}
