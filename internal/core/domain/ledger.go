package domain

import "time"

// LedgerEntry is the per-(user, record) bookkeeping row for the sync
// pipeline. It is the sole source of truth for "is this record up to
// date" and is only ever written by the sync engine, strictly after the
// record's vectors have been written.
type LedgerEntry struct {
	// UserID identifies the owning user.
	UserID string

	// Provider is the record's source.
	Provider Provider

	// RecordID is the stable provider-side identifier (page ID, message ID).
	RecordID string

	// Title is the page title or email subject at last sync.
	Title string

	// SourceVersion is the provider-reported version timestamp: last edit
	// time for pages, send time for email.
	SourceVersion time.Time

	// ChunkCount is the number of vector records written for this record.
	// Zero when the record's extracted content was empty; the entry is
	// still written so empty records are not re-fetched every run.
	ChunkCount int

	// SyncedAt is when this entry was last written.
	SyncedAt time.Time
}
