package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/spam-sweeper/internal/core"
	"go.uber.org/zap"
)

// MemoryCache is an in-memory implementation of the ResultCache interface
type MemoryCache struct {
	entries     map[string]*core.ResultEntry
	mu          sync.Mutex
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory result cache
func NewMemoryCache(logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]*core.ResultEntry),
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache
}

// Put overwrites the owner's entry with the given messages and provenance
func (c *MemoryCache) Put(ctx context.Context, ownerID string, messages []core.Message, provenance core.Provenance) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ownerID] = &core.ResultEntry{
		OwnerID:    ownerID,
		Messages:   messages,
		Provenance: provenance,
		CreatedAt:  now,
		ExpiresAt:  now.Add(c.ttl),
	}

	c.logger.Debug("Cached result entry",
		zap.Int("messages", len(messages)),
		zap.String("provenance", string(provenance)),
		zap.Duration("ttl", c.ttl))
	return nil
}

// Get returns the owner's live entry. An expired entry is removed and treated
// as absent.
func (c *MemoryCache) Get(ctx context.Context, ownerID string) (*core.ResultEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[ownerID]
	if !ok {
		return nil, false
	}

	if entry.Expired(time.Now()) {
		delete(c.entries, ownerID)
		c.logger.Debug("Evicted expired entry on read")
		return nil, false
	}

	return entry, true
}

// Sweep removes all expired entries
func (c *MemoryCache) Sweep(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for ownerID, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, ownerID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Swept expired cache entries", zap.Int("expired_count", expiredCount))
	}
	return nil
}

// Remove deletes the owner's entry
func (c *MemoryCache) Remove(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, ownerID)
	return nil
}

// Entries returns a snapshot of all live entries
func (c *MemoryCache) Entries(ctx context.Context) []core.ResultEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	snapshot := make([]core.ResultEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		if !entry.Expired(now) {
			snapshot = append(snapshot, *entry)
		}
	}
	return snapshot
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
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

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}

// Ensure MemoryCache implements core.ResultCache
var _ core.ResultCache = (*MemoryCache)(nil)
