// Package domain contains the core business types for Concierge:
// provider accounts, the sync ledger, vector records, chat messages
// and citations. It has no dependencies on adapters or external
// services.
package domain
