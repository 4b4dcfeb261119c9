package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/spam-sweeper/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the ResultCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL result cache
func NewMySQLCache(dsn string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS result_cache (
			owner_id VARCHAR(64) PRIMARY KEY,
			messages MEDIUMTEXT,
			provenance VARCHAR(32),
			created_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Put(ctx context.Context, ownerID string, messages []core.Message, provenance core.Provenance) error {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	now := time.Now()
	_, err = c.db.ExecContext(ctx, `
		REPLACE INTO result_cache (owner_id, messages, provenance, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, ownerID, string(encoded), string(provenance), now, now.Add(c.ttl))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Get returns the owner's live entry. An expired row is deleted and treated
// as absent.
func (c *MySQLCache) Get(ctx context.Context, ownerID string) (*core.ResultEntry, bool) {
	var encoded, provenance string
	var created, expires time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT messages, provenance, created_at, expires_at
		FROM result_cache
		WHERE owner_id = ?
	`, ownerID).Scan(&encoded, &provenance, &created, &expires)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query cache", zap.Error(err))
		}
		return nil, false
	}

	var messages []core.Message
	if err := json.Unmarshal([]byte(encoded), &messages); err != nil {
		c.logger.Error("Failed to decode cache entry", zap.Error(err))
		return nil, false
	}

	entry := &core.ResultEntry{
		OwnerID:    ownerID,
		Messages:   messages,
		Provenance: core.Provenance(provenance),
		CreatedAt:  created,
		ExpiresAt:  expires,
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
func (c *MySQLCache) Sweep(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM result_cache WHERE expires_at <= NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to sweep cache: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		c.logger.Debug("Swept expired cache entries", zap.Int64("expired_count", rows))
	}
	return nil
}

// Remove deletes the owner's entry
func (c *MySQLCache) Remove(ctx context.Context, ownerID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM result_cache WHERE owner_id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Entries returns a snapshot of all live entries
func (c *MySQLCache) Entries(ctx context.Context) []core.ResultEntry {
	rows, err := c.db.QueryContext(ctx, `
		SELECT owner_id, messages, provenance, created_at, expires_at
		FROM result_cache
		WHERE expires_at > NOW()
	`)
	if err != nil {
		c.logger.Error("Failed to query cache entries", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var snapshot []core.ResultEntry
	for rows.Next() {
		var ownerID, encoded, provenance string
		var created, expires time.Time
		if err := rows.Scan(&ownerID, &encoded, &provenance, &created, &expires); err != nil {
			c.logger.Error("Failed to scan cache entry", zap.Error(err))
			continue
		}

		var messages []core.Message
		if err := json.Unmarshal([]byte(encoded), &messages); err != nil {
			c.logger.Error("Failed to decode cache entry", zap.Error(err))
			continue
		}

		snapshot = append(snapshot, core.ResultEntry{
			OwnerID:    ownerID,
			Messages:   messages,
			Provenance: core.Provenance(provenance),
			CreatedAt:  created,
			ExpiresAt:  expires,
		})
	}
	return snapshot
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}

// Ensure MySQLCache implements core.ResultCache
var _ core.ResultCache = (*MySQLCache)(nil)
