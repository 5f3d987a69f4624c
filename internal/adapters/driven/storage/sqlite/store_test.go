package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-hq/concierge/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAccountStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	accounts := store.AccountStore()
	ctx := context.Background()

	expiry := time.Now().Add(1 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, accounts.Save(ctx, domain.OAuthAccount{
		UserID:         "user-1",
		Provider:       domain.ProviderNotion,
		AccessToken:    "token",
		RefreshToken:   "refresh",
		TokenExpiresAt: expiry,
		Scopes:         []string{"read_content", "read_user"},
	}))

	account, err := accounts.Get(ctx, "user-1", domain.ProviderNotion)
	require.NoError(t, err)
	assert.Equal(t, "token", account.AccessToken)
	assert.Equal(t, "refresh", account.RefreshToken)
	assert.Equal(t, expiry, account.TokenExpiresAt.UTC().Truncate(time.Second))
	assert.Equal(t, []string{"read_content", "read_user"}, account.Scopes)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestAccountStore_SaveUpdatesTokens(t *testing.T) {
	store := newTestStore(t)
	accounts := store.AccountStore()
	ctx := context.Background()

	require.NoError(t, accounts.Save(ctx, domain.OAuthAccount{
		UserID:      "user-1",
		Provider:    domain.ProviderGmail,
		AccessToken: "old",
	}))
	require.NoError(t, accounts.Save(ctx, domain.OAuthAccount{
		UserID:      "user-1",
		Provider:    domain.ProviderGmail,
		AccessToken: "new",
	}))

	account, err := accounts.Get(ctx, "user-1", domain.ProviderGmail)
	require.NoError(t, err)
	assert.Equal(t, "new", account.AccessToken)
}

func TestAccountStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AccountStore().Get(context.Background(), "user-1", domain.ProviderHubSpot)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountStore_Delete(t *testing.T) {
	store := newTestStore(t)
	accounts := store.AccountStore()
	ctx := context.Background()

	require.NoError(t, accounts.Save(ctx, domain.OAuthAccount{
		UserID:      "user-1",
		Provider:    domain.ProviderNotion,
		AccessToken: "token",
	}))

	require.NoError(t, accounts.Delete(ctx, "user-1", domain.ProviderNotion))

	_, err := accounts.Get(ctx, "user-1", domain.ProviderNotion)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = accounts.Delete(ctx, "user-1", domain.ProviderNotion)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ledger := store.LedgerStore()
	ctx := context.Background()

	require.NoError(t, ledger.Save(ctx, domain.LedgerEntry{
		UserID:        "user-1",
		Provider:      domain.ProviderNotion,
		RecordID:      "page-1",
		Title:         "Roadmap",
		SourceVersion: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ChunkCount:    3,
	}))

	entry, err := ledger.Get(ctx, "user-1", domain.ProviderNotion, "page-1")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", entry.Title)
	assert.Equal(t, 3, entry.ChunkCount)
	assert.False(t, entry.SyncedAt.IsZero())

	// Upsert the same record with a newer version.
	require.NoError(t, ledger.Save(ctx, domain.LedgerEntry{
		UserID:        "user-1",
		Provider:      domain.ProviderNotion,
		RecordID:      "page-1",
		Title:         "Roadmap v2",
		SourceVersion: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		ChunkCount:    5,
	}))

	entry, err = ledger.Get(ctx, "user-1", domain.ProviderNotion, "page-1")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap v2", entry.Title)
	assert.Equal(t, 5, entry.ChunkCount)
	assert.True(t, entry.SourceVersion.Equal(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)))

	entries, err := ledger.List(ctx, "user-1", domain.ProviderNotion)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerStore_DeleteForUser(t *testing.T) {
	store := newTestStore(t)
	ledger := store.LedgerStore()
	ctx := context.Background()

	require.NoError(t, ledger.Save(ctx, domain.LedgerEntry{
		UserID: "user-1", Provider: domain.ProviderGmail, RecordID: "msg-1",
	}))
	require.NoError(t, ledger.Save(ctx, domain.LedgerEntry{
		UserID: "user-2", Provider: domain.ProviderGmail, RecordID: "msg-2",
	}))

	require.NoError(t, ledger.DeleteForUser(ctx, "user-1", domain.ProviderGmail))

	entries, err := ledger.List(ctx, "user-1", domain.ProviderGmail)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Other users are untouched.
	entries, err = ledger.List(ctx, "user-2", domain.ProviderGmail)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Deleting again is not an error.
	assert.NoError(t, ledger.DeleteForUser(ctx, "user-1", domain.ProviderGmail))
}

func TestMessageStore_AppendAndList(t *testing.T) {
	store := newTestStore(t)
	messages := store.MessageStore()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, messages.Append(ctx, domain.StoredMessage{
		ID: "m1", ConversationID: "conv-1", UserID: "user-1",
		Role: domain.RoleUser, Content: "hello", CreatedAt: base,
	}))
	require.NoError(t, messages.Append(ctx, domain.StoredMessage{
		ID: "m2", ConversationID: "conv-1", UserID: "user-1",
		Role: domain.RoleAssistant, Content: "hi there", CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, messages.Append(ctx, domain.StoredMessage{
		ID: "m3", ConversationID: "conv-2", UserID: "user-1",
		Role: domain.RoleUser, Content: "other", CreatedAt: base,
	}))

	list, err := messages.List(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].Content)
	assert.Equal(t, "hi there", list[1].Content)

	list, err = messages.List(ctx, "conv-3")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
