package connectors

import (
	"context"
	"fmt"

	"github.com/concierge-hq/concierge/internal/connectors/gmail"
	"github.com/concierge-hq/concierge/internal/connectors/notion"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory builds connectors for (user, provider) pairs, wiring in the
// user's token provider.
type Factory struct {
	tokens driven.TokenProviderFactory
}

// NewFactory creates a connector factory.
func NewFactory(tokens driven.TokenProviderFactory) *Factory {
	return &Factory{tokens: tokens}
}

// Create returns a connector for the given user and provider.
func (f *Factory) Create(ctx context.Context, userID string, provider domain.Provider) (driven.Connector, error) {
	tokens := f.tokens.For(userID, provider)

	switch provider {
	case domain.ProviderNotion:
		return notion.New(tokens), nil
	case domain.ProviderGmail:
		return gmail.New(ctx, tokens, nil)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}
}
