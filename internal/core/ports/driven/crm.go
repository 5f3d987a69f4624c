package driven

import (
	"context"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

// CRMClient calls the CRM contacts API directly. Contact lists are
// small and exact-match oriented, so they bypass the vector index.
//
// Implementations wrap a 401 response with domain.ErrAuthExpired; the
// tool layer refreshes the token once and retries the call exactly
// once before surfacing a structured error.
type CRMClient interface {
	// ListContacts fetches up to limit contacts using the given access
	// token.
	ListContacts(ctx context.Context, accessToken string, limit int) ([]domain.Contact, error)
}
