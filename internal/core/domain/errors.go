package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown provider identifier.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// Authentication errors.

	// ErrAccountNotConnected indicates the user has no account for the
	// provider. Sync runs no-op; tools return a "reconnect" payload.
	ErrAccountNotConnected = errors.New("account not connected")

	// ErrAuthExpired indicates credentials expired and refresh failed or
	// was impossible. The user must re-authenticate.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrTokenRefreshFailed indicates the token refresh exchange was
	// rejected by the provider.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Pipeline errors.

	// ErrUpstream indicates a provider API failure unrelated to auth.
	// Logged and skipped, never fatal to the process.
	ErrUpstream = errors.New("upstream provider error")

	// ErrEmbedding indicates the embedding call failed. Aborts the
	// current record; the ledger is untouched since it is written last.
	ErrEmbedding = errors.New("embedding failed")

	// ErrVectorIndex indicates a vector store operation failed.
	ErrVectorIndex = errors.New("vector index error")

	// ErrRateLimited indicates the provider API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Agent errors.

	// ErrModelUnavailable indicates the model call itself failed
	// (network, quota). The only error class surfaced to the user as
	// "service unavailable".
	ErrModelUnavailable = errors.New("model unavailable")
)
