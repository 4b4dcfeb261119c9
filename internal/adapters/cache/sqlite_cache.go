package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/spam-sweeper/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the ResultCache interface.
// Result entries survive a process restart; messages are stored as JSON.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite result cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS result_cache (
			owner_id TEXT PRIMARY KEY,
			messages TEXT,
			provenance TEXT,
			created_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expires_at ON result_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Put overwrites the owner's entry with the given messages and provenance
func (c *SQLiteCache) Put(ctx context.Context, ownerID string, messages []core.Message, provenance core.Provenance) error {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	now := time.Now()
	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO result_cache (owner_id, messages, provenance, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, ownerID, string(encoded), string(provenance),
		now.Format(time.RFC3339), now.Add(c.ttl).Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Get returns the owner's live entry. An expired row is deleted and treated
// as absent.
func (c *SQLiteCache) Get(ctx context.Context, ownerID string) (*core.ResultEntry, bool) {
	var encoded, provenance, createdAt, expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT messages, provenance, created_at, expires_at
		FROM result_cache
		WHERE owner_id = ?
	`, ownerID).Scan(&encoded, &provenance, &createdAt, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query cache", zap.Error(err))
		}
		return nil, false
	}

	entry, err := decodeEntry(ownerID, encoded, provenance, createdAt, expiresAt)
	if err != nil {
		c.logger.Error("Failed to decode cache entry", zap.Error(err))
		return nil, false
	}

	if entry.Expired(time.Now()) {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM result_cache WHERE owner_id = ?`, ownerID); err != nil {
			c.logger.Error("Failed to evict expired entry", zap.Error(err))
		}
		return nil, false
	}

	return entry, true
}

// Sweep removes all expired entries
func (c *SQLiteCache) Sweep(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM result_cache WHERE expires_at <= ?
	`, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to sweep cache: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		c.logger.Debug("Swept expired cache entries", zap.Int64("expired_count", rows))
	}
	return nil
}

// Remove deletes the owner's entry
func (c *SQLiteCache) Remove(ctx context.Context, ownerID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM result_cache WHERE owner_id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Entries returns a snapshot of all live entries
func (c *SQLiteCache) Entries(ctx context.Context) []core.ResultEntry {
	rows, err := c.db.QueryContext(ctx, `
		SELECT owner_id, messages, provenance, created_at, expires_at
		FROM result_cache
		WHERE expires_at > ?
	`, time.Now().Format(time.RFC3339))
	if err != nil {
		c.logger.Error("Failed to query cache entries", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var snapshot []core.ResultEntry
	for rows.Next() {
		var ownerID, encoded, provenance, createdAt, expiresAt string
		if err := rows.Scan(&ownerID, &encoded, &provenance, &createdAt, &expiresAt); err != nil {
			c.logger.Error("Failed to scan cache entry", zap.Error(err))
			continue
		}
		entry, err := decodeEntry(ownerID, encoded, provenance, createdAt, expiresAt)
		if err != nil {
			c.logger.Error("Failed to decode cache entry", zap.Error(err))
			continue
		}
		snapshot = append(snapshot, *entry)
	}
	return snapshot
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Sweep(context.Background()); err != nil {
				c.logger.Error("Failed to sweep cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

// decodeEntry rebuilds a ResultEntry from its stored row
func decodeEntry(ownerID, encoded, provenance, createdAt, expiresAt string) (*core.ResultEntry, error) {
	var messages []core.Message
	if err := json.Unmarshal([]byte(encoded), &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	expires, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	return &core.ResultEntry{
		OwnerID:    ownerID,
		Messages:   messages,
		Provenance: core.Provenance(provenance),
		CreatedAt:  created,
		ExpiresAt:  expires,
	}, nil
}

// Ensure SQLiteCache implements core.ResultCache
var _ core.ResultCache = (*SQLiteCache)(nil)
