package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure AccountTokenProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*AccountTokenProvider)(nil)

// Endpoint holds the OAuth client configuration for one provider.
type Endpoint struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Endpoints maps each provider to its OAuth client configuration.
type Endpoints map[domain.Provider]Endpoint

// AccountTokenProvider provides OAuth access tokens for one connected
// account, refreshing them through the provider's token endpoint when
// they approach expiry.
type AccountTokenProvider struct {
	userID    string
	provider  domain.Provider
	accounts  driven.AccountStore
	endpoints Endpoints
	client    *http.Client

	mu          sync.RWMutex
	cachedToken string
	cacheExpiry time.Time
}

// NewAccountTokenProvider creates a token provider backed by the
// account store.
func NewAccountTokenProvider(
	userID string,
	provider domain.Provider,
	accounts driven.AccountStore,
	endpoints Endpoints,
) *AccountTokenProvider {
	return &AccountTokenProvider{
		userID:    userID,
		provider:  provider,
		accounts:  accounts,
		endpoints: endpoints,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns a valid access token, refreshing if necessary.
func (p *AccountTokenProvider) Token(ctx context.Context) (string, error) {
	// Fast path: check cache with read lock
	p.mu.RLock()
	if p.cachedToken != "" && time.Now().Before(p.cacheExpiry) {
		token := p.cachedToken
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	// Slow path: acquire write lock
	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if p.cachedToken != "" && time.Now().Before(p.cacheExpiry) {
		return p.cachedToken, nil
	}

	account, err := p.accounts.Get(ctx, p.userID, p.provider)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrAccountNotConnected, p.provider)
		}
		return "", fmt.Errorf("get account: %w", err)
	}

	if account.NeedsRefresh() {
		if !account.HasRefreshToken() {
			if account.IsExpired() {
				return "", fmt.Errorf("%w: %s token expired and no refresh token", domain.ErrAuthExpired, p.provider)
			}
		} else {
			if err := p.refresh(ctx, account); err != nil {
				return "", err
			}
			if err := p.accounts.Save(ctx, *account); err != nil {
				return "", fmt.Errorf("save refreshed account: %w", err)
			}
		}
	}

	p.cachedToken = account.AccessToken
	if !account.TokenExpiresAt.IsZero() {
		p.cacheExpiry = account.TokenExpiresAt.Add(-domain.RefreshMargin)
	} else {
		p.cacheExpiry = time.Now().Add(1 * time.Hour)
	}

	return p.cachedToken, nil
}

// refresh exchanges the refresh token for a new access token and
// updates the account in place.
func (p *AccountTokenProvider) refresh(ctx context.Context, account *domain.OAuthAccount) error {
	endpoint, ok := p.endpoints[p.provider]
	if !ok || endpoint.TokenURL == "" {
		return fmt.Errorf("%w: no token endpoint configured for %s", domain.ErrTokenRefreshFailed, p.provider)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", account.RefreshToken)
	data.Set("client_id", endpoint.ClientID)
	data.Set("client_secret", endpoint.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: refresh rejected with status %d", domain.ErrAuthExpired, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: token refresh failed with status %d", domain.ErrTokenRefreshFailed, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("%w: decode token response: %v", domain.ErrTokenRefreshFailed, err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("%w: token response missing access token", domain.ErrTokenRefreshFailed)
	}

	account.AccessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		account.RefreshToken = tokenResp.RefreshToken
	}
	if tokenResp.ExpiresIn > 0 {
		account.TokenExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}
	account.UpdatedAt = time.Now()
	return nil
}

// Invalidate clears the cached token so the next call re-reads the
// account store.
func (p *AccountTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cachedToken = ""
	p.cacheExpiry = time.Time{}
}
