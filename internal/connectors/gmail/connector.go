// Package gmail implements the email connector against the Gmail API.
// Messages are fetched in raw RFC 2822 form and parsed downstream by
// the email extractor.
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/concierge-hq/concierge/internal/connectors/ratelimit"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// RecencyQuery bounds each sync run to recent mail. Inbox history
// beyond this window never enters the index.
const RecencyQuery = "newer_than:5d"

const listPageSize = 100

// Connector lists and fetches recent email for one user.
type Connector struct {
	service *gmailapi.Service
	limiter *ratelimit.Limiter
	query   string
}

// Option configures the connector.
type Option func(*Connector)

// WithQuery overrides the listing query.
func WithQuery(query string) Option {
	return func(c *Connector) { c.query = query }
}

// New creates a connector using the given token provider.
func New(ctx context.Context, tokens driven.TokenProvider, clientOpts []option.ClientOption, opts ...Option) (*Connector, error) {
	clientOpts = append([]option.ClientOption{option.WithTokenSource(NewTokenSource(ctx, tokens))}, clientOpts...)
	service, err := gmailapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	c := &Connector{
		service: service,
		// Conservative pacing for quota units.
		limiter: ratelimit.New(ratelimit.Config{RequestsPerSecond: 2.0, BurstSize: 5}),
		query:   RecencyQuery,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider returns the connector's provider identifier.
func (c *Connector) Provider() domain.Provider {
	return domain.ProviderGmail
}

// Capabilities returns what this connector supports. Sent mail never
// changes, so records are immutable, and bodies are indexed whole.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		ImmutableRecords: true,
		SingleChunk:      true,
	}
}

// List enumerates recent message IDs, following pagination until
// exhausted. The listing endpoint returns IDs only; subjects and
// timestamps come from Fetch.
func (c *Connector) List(ctx context.Context) ([]domain.RemoteRecord, error) {
	var records []domain.RemoteRecord
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.service.Users.Messages.List("me").
			Q(c.query).
			MaxResults(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", wrapError(err))
		}

		for _, msg := range resp.Messages {
			records = append(records, domain.RemoteRecord{ID: msg.Id})
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return records, nil
}

// Fetch retrieves one message in raw RFC 2822 form.
func (c *Connector) Fetch(ctx context.Context, record domain.RemoteRecord) (*domain.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	msg, err := c.service.Users.Messages.Get("me", record.ID).
		Format("raw").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", record.ID, wrapError(err))
	}

	rawBytes, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode message %s: %w", record.ID, err)
	}

	return &domain.RawRecord{
		Provider: domain.ProviderGmail,
		ID:       msg.Id,
		Title:    record.Title,
		Version:  time.UnixMilli(msg.InternalDate).UTC(),
		MIMEType: "message/rfc822",
		Content:  rawBytes,
		Metadata: map[string]any{
			"thread_id": msg.ThreadId,
			"labels":    msg.LabelIds,
		},
	}, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}

// wrapError maps Gmail API errors onto domain sentinels.
func wrapError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: gmail API status 401", domain.ErrAuthExpired)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: gmail API status 429", domain.ErrRateLimited)
	default:
		return fmt.Errorf("%w: gmail API status %d", domain.ErrUpstream, gerr.Code)
	}
}
