// Package auth provides OAuth token management for connected accounts,
// including automatic refresh of expiring access tokens.
package auth
