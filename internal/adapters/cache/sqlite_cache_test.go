package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSQLiteCache(t *testing.T, ttl time.Duration) *SQLiteCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(path, zap.NewNop(), ttl, time.Hour)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestSQLiteCachePutGet(t *testing.T) {
	c := newTestSQLiteCache(t, time.Hour)
	ctx := context.Background()

	messages := []core.Message{
		{ID: "1", Sender: "a@example.com", Subject: "hi", Body: "hello", Prediction: core.LabelSpam},
		{ID: "2", Prediction: core.LabelNotSpam, Extra: map[string]string{"notes": "kept"}},
	}
	require.NoError(t, c.Put(ctx, "owner-1", messages, core.ProvenanceModel))

	entry, ok := c.Get(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, "owner-1", entry.OwnerID)
	assert.Equal(t, messages, entry.Messages)
	assert.Equal(t, core.ProvenanceModel, entry.Provenance)
	assert.True(t, entry.ExpiresAt.After(entry.CreatedAt))
}

func TestSQLiteCacheGetMissing(t *testing.T) {
	c := newTestSQLiteCache(t, time.Hour)

	_, ok := c.Get(context.Background(), "nobody")
	assert.False(t, ok)
}

func TestSQLiteCachePutOverwrites(t *testing.T) {
	c := newTestSQLiteCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1", Prediction: core.LabelSpam}}, core.ProvenanceModel))
	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1", Prediction: core.LabelNotSpam}}, core.ProvenanceUser))

	entry, ok := c.Get(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, core.ProvenanceUser, entry.Provenance)
	require.Len(t, entry.Messages, 1)
	assert.Equal(t, core.LabelNotSpam, entry.Messages[0].Prediction)
}

func TestSQLiteCacheExpiry(t *testing.T) {
	// Negative TTL writes rows that are already expired.
	c := newTestSQLiteCache(t, -time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))

	_, ok := c.Get(ctx, "owner-1")
	assert.False(t, ok, "expired row must read as absent")

	// The expired row was deleted on read
	var count int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM result_cache`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSQLiteCacheSweep(t *testing.T) {
	c := newTestSQLiteCache(t, -time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Put(ctx, "owner-2", []core.Message{{ID: "2"}}, core.ProvenanceUser))

	require.NoError(t, c.Sweep(ctx))

	var count int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM result_cache`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSQLiteCacheSweepKeepsLiveRows(t *testing.T) {
	c := newTestSQLiteCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Sweep(ctx))

	_, ok := c.Get(ctx, "owner-1")
	assert.True(t, ok)
}

func TestSQLiteCacheRemove(t *testing.T) {
	c := newTestSQLiteCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Remove(ctx, "owner-1"))

	_, ok := c.Get(ctx, "owner-1")
	assert.False(t, ok)
}

func TestSQLiteCacheEntries(t *testing.T) {
	c := newTestSQLiteCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Put(ctx, "owner-2", []core.Message{{ID: "2"}}, core.ProvenanceUser))

	entries := c.Entries(ctx)
	assert.Len(t, entries, 2)
}
