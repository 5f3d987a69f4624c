// Package sqlite provides durable storage for accounts, the sync
// ledger, and chat messages, backed by a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/concierge-hq/concierge/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage providing the account,
// ledger, and message store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.concierge/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".concierge", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "concierge.db")

	// WAL mode for better concurrency between sync workers and chat.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AccountStore returns an AccountStore backed by this store.
func (s *Store) AccountStore() driven.AccountStore {
	return &accountStore{store: s}
}

// LedgerStore returns a LedgerStore backed by this store.
func (s *Store) LedgerStore() driven.LedgerStore {
	return &ledgerStore{store: s}
}

// MessageStore returns a MessageStore backed by this store.
func (s *Store) MessageStore() driven.MessageStore {
	return &messageStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Account Store ====================

type accountStore struct {
	store *Store
}

var _ driven.AccountStore = (*accountStore)(nil)

// Get retrieves the account for a user and provider.
func (s *accountStore) Get(ctx context.Context, userID string, provider domain.Provider) (*domain.OAuthAccount, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, provider, access_token, refresh_token, token_expires_at,
		       scopes, raw_profile, created_at, updated_at
		FROM oauth_accounts WHERE user_id = ? AND provider = ?
	`, userID, provider)

	var account domain.OAuthAccount
	var refreshToken, scopes, rawProfile sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&account.UserID, &account.Provider, &account.AccessToken,
		&refreshToken, &expiresAt, &scopes, &rawProfile,
		&account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	account.RefreshToken = refreshToken.String
	account.RawProfile = rawProfile.String
	if expiresAt.Valid {
		account.TokenExpiresAt = expiresAt.Time
	}
	if scopes.String != "" {
		account.Scopes = strings.Split(scopes.String, " ")
	}
	return &account, nil
}

// Save stores or updates an account.
func (s *accountStore) Save(ctx context.Context, account domain.OAuthAccount) error {
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	var expiresAt any
	if !account.TokenExpiresAt.IsZero() {
		expiresAt = account.TokenExpiresAt.UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO oauth_accounts (user_id, provider, access_token, refresh_token,
			token_expires_at, scopes, raw_profile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expires_at = excluded.token_expires_at,
			scopes = excluded.scopes,
			raw_profile = excluded.raw_profile,
			updated_at = excluded.updated_at
	`, account.UserID, account.Provider, account.AccessToken,
		nullString(account.RefreshToken), expiresAt,
		nullString(strings.Join(account.Scopes, " ")), nullString(account.RawProfile),
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// Delete removes the account.
func (s *accountStore) Delete(ctx context.Context, userID string, provider domain.Provider) error {
	result, err := s.store.db.ExecContext(ctx,
		`DELETE FROM oauth_accounts WHERE user_id = ? AND provider = ?`, userID, provider)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Ledger Store ====================

type ledgerStore struct {
	store *Store
}

var _ driven.LedgerStore = (*ledgerStore)(nil)

// Get retrieves the entry for one record.
func (s *ledgerStore) Get(ctx context.Context, userID string, provider domain.Provider, recordID string) (*domain.LedgerEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, provider, record_id, title, source_version, chunk_count, synced_at
		FROM sync_ledger WHERE user_id = ? AND provider = ? AND record_id = ?
	`, userID, provider, recordID)

	var entry domain.LedgerEntry
	if err := row.Scan(&entry.UserID, &entry.Provider, &entry.RecordID,
		&entry.Title, &entry.SourceVersion, &entry.ChunkCount, &entry.SyncedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning ledger entry: %w", err)
	}
	return &entry, nil
}

// Save stores or updates an entry.
func (s *ledgerStore) Save(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_ledger (user_id, provider, record_id, title, source_version, chunk_count, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider, record_id) DO UPDATE SET
			title = excluded.title,
			source_version = excluded.source_version,
			chunk_count = excluded.chunk_count,
			synced_at = excluded.synced_at
	`, entry.UserID, entry.Provider, entry.RecordID, entry.Title,
		entry.SourceVersion, entry.ChunkCount, entry.SyncedAt)
	if err != nil {
		return fmt.Errorf("saving ledger entry: %w", err)
	}
	return nil
}

// List returns all entries for a user and provider.
func (s *ledgerStore) List(ctx context.Context, userID string, provider domain.Provider) ([]domain.LedgerEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_id, provider, record_id, title, source_version, chunk_count, synced_at
		FROM sync_ledger WHERE user_id = ? AND provider = ?
		ORDER BY record_id
	`, userID, provider)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(&entry.UserID, &entry.Provider, &entry.RecordID,
			&entry.Title, &entry.SourceVersion, &entry.ChunkCount, &entry.SyncedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteForUser removes every entry for a user and provider.
func (s *ledgerStore) DeleteForUser(ctx context.Context, userID string, provider domain.Provider) error {
	_, err := s.store.db.ExecContext(ctx,
		`DELETE FROM sync_ledger WHERE user_id = ? AND provider = ?`, userID, provider)
	if err != nil {
		return fmt.Errorf("deleting ledger entries: %w", err)
	}
	return nil
}

// ==================== Message Store ====================

type messageStore struct {
	store *Store
}

var _ driven.MessageStore = (*messageStore)(nil)

// Append stores one message.
func (s *messageStore) Append(ctx context.Context, msg domain.StoredMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, conversation_id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ConversationID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// List returns a conversation's messages in creation order.
func (s *messageStore) List(ctx context.Context, conversationID string) ([]domain.StoredMessage, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, conversation_id, user_id, role, content, created_at
		FROM chat_messages WHERE conversation_id = ?
		ORDER BY created_at, id
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.StoredMessage
	for rows.Next() {
		var msg domain.StoredMessage
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID,
			&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// nullString converts empty strings to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
