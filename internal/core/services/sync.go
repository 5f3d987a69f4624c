package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
	"github.com/concierge-hq/concierge/internal/core/ports/driving"
	"github.com/concierge-hq/concierge/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncEngine = (*SyncEngine)(nil)

// SyncEngine coordinates one provider's sync pipeline: list, diff
// against the ledger, fetch, extract, chunk, embed, index, then record.
type SyncEngine struct {
	accounts     driven.AccountStore
	ledger       driven.LedgerStore
	vectors      driven.VectorStore
	embedder     driven.EmbeddingService
	factory      driven.ConnectorFactory
	extractors   driven.ExtractorRegistry
	docChunker   driven.Chunker
	wholeChunker driven.Chunker
}

// NewSyncEngine creates a new sync engine. docChunker splits document
// text into overlapping windows; wholeChunker is used for connectors
// whose records index as a single chunk.
func NewSyncEngine(
	accounts driven.AccountStore,
	ledger driven.LedgerStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	factory driven.ConnectorFactory,
	extractors driven.ExtractorRegistry,
	docChunker driven.Chunker,
	wholeChunker driven.Chunker,
) *SyncEngine {
	return &SyncEngine{
		accounts:     accounts,
		ledger:       ledger,
		vectors:      vectors,
		embedder:     embedder,
		factory:      factory,
		extractors:   extractors,
		docChunker:   docChunker,
		wholeChunker: wholeChunker,
	}
}

// Sync synchronises one user's provider data. A user without a
// connected account is a no-op, not an error: syncs are fired
// opportunistically and the account may have been disconnected since.
func (e *SyncEngine) Sync(ctx context.Context, userID string, provider domain.Provider, force bool) error {
	if provider.Collection() == "" {
		return fmt.Errorf("%w: %s is not a synced provider", domain.ErrUnsupportedProvider, provider)
	}

	if _, err := e.accounts.Get(ctx, userID, provider); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("Sync skipped for %s/%s: not connected", userID, provider)
			return nil
		}
		return fmt.Errorf("get account: %w", err)
	}

	connector, err := e.factory.Create(ctx, userID, provider)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	if err := e.vectors.EnsureCollection(ctx, provider, e.embedder.Dimensions()); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	// A listing failure aborts the whole run; without the listing there
	// is nothing meaningful to diff.
	records, err := connector.List(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	entries, err := e.ledger.List(ctx, userID, provider)
	if err != nil {
		return fmt.Errorf("list ledger: %w", err)
	}
	synced := make(map[string]domain.LedgerEntry, len(entries))
	for _, entry := range entries {
		synced[entry.RecordID] = entry
	}

	caps := connector.Capabilities()
	logger.Info("Starting sync for %s/%s: %d listed, %d in ledger", userID, provider, len(records), len(synced))

	processed, skipped, failed := 0, 0, 0
	for _, record := range records {
		entry, seen := synced[record.ID]
		if !force && seen && upToDate(caps, entry, record) {
			skipped++
			continue
		}

		if err := e.processRecord(ctx, connector, caps, userID, provider, record, seen); err != nil {
			// Auth expiry poisons every remaining call; abort instead of
			// burning through the listing.
			if errors.Is(err, domain.ErrAuthExpired) || ctx.Err() != nil {
				return fmt.Errorf("process %s: %w", record.ID, err)
			}
			logger.Warn("Failed to process %s/%s record %s: %v", userID, provider, record.ID, err)
			failed++
			continue
		}
		processed++
	}

	logger.Info("Sync complete for %s/%s: %d processed, %d skipped, %d failed", userID, provider, processed, skipped, failed)
	return nil
}

// upToDate decides whether a previously synced record can be skipped.
// Immutable records are skipped whenever they have ever been synced;
// editable records are re-processed once the provider reports a newer
// version.
func upToDate(caps driven.ConnectorCapabilities, entry domain.LedgerEntry, record domain.RemoteRecord) bool {
	if caps.ImmutableRecords {
		return true
	}
	return !record.Version.After(entry.SourceVersion)
}

// processRecord runs the fetch-extract-chunk-embed-index pipeline for
// one record. The ledger entry is written strictly last, so a failure
// anywhere leaves the record due for retry on the next run.
func (e *SyncEngine) processRecord(
	ctx context.Context,
	connector driven.Connector,
	caps driven.ConnectorCapabilities,
	userID string,
	provider domain.Provider,
	record domain.RemoteRecord,
	resync bool,
) error {
	raw, err := connector.Fetch(ctx, record)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	extracted, err := e.extractors.Extract(ctx, raw)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	title := extracted.Title
	if title == "" {
		title = record.Title
	}

	// Stale chunks from the previous version must go before the new
	// ones land, and also when the record shrank to nothing.
	if resync && !caps.ImmutableRecords {
		if err := e.vectors.DeleteRecord(ctx, provider, userID, record.ID); err != nil {
			return fmt.Errorf("delete stale vectors: %w", err)
		}
	}

	chunker := e.docChunker
	if caps.SingleChunk {
		chunker = e.wholeChunker
	}
	chunks := chunker.Chunk(extracted.Content)

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}
		embeddings, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbedding, len(embeddings), len(chunks))
		}

		vectorRecords := make([]domain.VectorRecord, len(chunks))
		for i, chunk := range chunks {
			vectorRecords[i] = domain.VectorRecord{
				UserID:     userID,
				Provider:   provider,
				RecordID:   record.ID,
				ChunkIndex: chunk.Index,
				Title:      title,
				Sender:     extracted.Sender,
				Content:    capContent(chunk.Content),
				Embedding:  embeddings[i],
			}
		}
		if err := e.vectors.Upsert(ctx, vectorRecords); err != nil {
			return fmt.Errorf("upsert vectors: %w", err)
		}
	}

	// Records with no extractable text still get a ledger entry so they
	// are not re-fetched every run.
	version := raw.Version
	if version.IsZero() {
		version = record.Version
	}
	if err := e.ledger.Save(ctx, domain.LedgerEntry{
		UserID:        userID,
		Provider:      provider,
		RecordID:      record.ID,
		Title:         title,
		SourceVersion: version,
		ChunkCount:    len(chunks),
	}); err != nil {
		return fmt.Errorf("save ledger entry: %w", err)
	}
	return nil
}

// DeleteUserData removes all vector records and ledger entries for a
// (user, provider). Callers delete the account row only after this
// succeeds, so a re-connect always starts from empty state.
func (e *SyncEngine) DeleteUserData(ctx context.Context, userID string, provider domain.Provider) error {
	if provider.Collection() != "" {
		if err := e.vectors.DeleteUser(ctx, provider, userID); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}
	if err := e.ledger.DeleteForUser(ctx, userID, provider); err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	logger.Info("Deleted synced data for %s/%s", userID, provider)
	return nil
}

func capContent(s string) string {
	if len(s) <= domain.MaxVectorContent {
		return s
	}
	cut := domain.MaxVectorContent
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
