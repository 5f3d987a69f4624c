package domain

import "time"

// OAuthAccount stores a user's tokens for one connected provider.
// There is at most one account per (user, provider). The account row is
// owned by the connection-management layer; the sync engine and tools
// read it and write back refreshed tokens.
type OAuthAccount struct {
	// UserID identifies the owning user.
	UserID string `json:"user_id"`

	// Provider is the connected provider.
	Provider Provider `json:"provider"`

	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens. May be empty for
	// providers that issue non-expiring tokens.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenExpiresAt is when the access token expires. Zero means the
	// token does not expire.
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`

	// Scopes granted during authorization.
	Scopes []string `json:"scopes,omitempty"`

	// RawProfile is the provider's profile payload captured at connect
	// time (JSON), kept for display purposes.
	RawProfile string `json:"raw_profile,omitempty"`

	// CreatedAt is when the account was connected.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the tokens were last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshMargin is the safety window before expiry within which tokens
// are refreshed rather than used.
const RefreshMargin = 5 * time.Minute

// IsExpired returns true if the access token has expired.
func (a *OAuthAccount) IsExpired() bool {
	if a.TokenExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(a.TokenExpiresAt)
}

// NeedsRefresh returns true if the token is expired or expires within
// the refresh margin.
func (a *OAuthAccount) NeedsRefresh() bool {
	if a.TokenExpiresAt.IsZero() {
		return false
	}
	return time.Until(a.TokenExpiresAt) < RefreshMargin
}

// HasRefreshToken returns true if a refresh token is available.
func (a *OAuthAccount) HasRefreshToken() bool {
	return a.RefreshToken != ""
}
