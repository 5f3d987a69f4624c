package gmail

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// tokenSource adapts driven.TokenProvider to oauth2.TokenSource so the
// Google API client can use our token management.
type tokenSource struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
// Use it with option.WithTokenSource when building the Gmail service.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &tokenSource{provider: provider, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (t *tokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.Token(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
