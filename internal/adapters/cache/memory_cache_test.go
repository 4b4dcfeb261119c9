package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T, ttl time.Duration) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop(), ttl, time.Hour)
	t.Cleanup(c.Stop)
	return c
}

func TestMemoryCachePutGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	messages := []core.Message{{ID: "1", Prediction: core.LabelSpam}}
	require.NoError(t, c.Put(ctx, "owner-1", messages, core.ProvenanceModel))

	entry, ok := c.Get(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, "owner-1", entry.OwnerID)
	assert.Equal(t, messages, entry.Messages)
	assert.Equal(t, core.ProvenanceModel, entry.Provenance)
	assert.True(t, entry.ExpiresAt.After(entry.CreatedAt))
}

func TestMemoryCacheGetMissing(t *testing.T) {
	c := newTestCache(t, time.Hour)

	_, ok := c.Get(context.Background(), "nobody")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestCache(t, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "owner-1")
	assert.False(t, ok, "expired entry must read as absent")

	// The expired entry was evicted on read
	assert.Empty(t, c.Entries(ctx))
}

func TestMemoryCachePutOverwrites(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1", Prediction: core.LabelSpam}}, core.ProvenanceModel))
	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1", Prediction: core.LabelNotSpam}}, core.ProvenanceUser))

	entry, ok := c.Get(ctx, "owner-1")
	require.True(t, ok)
	assert.Equal(t, core.ProvenanceUser, entry.Provenance)
	assert.Equal(t, core.LabelNotSpam, entry.Messages[0].Prediction)
}

func TestMemoryCacheRemove(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Remove(ctx, "owner-1"))

	_, ok := c.Get(ctx, "owner-1")
	assert.False(t, ok)
}

func TestMemoryCacheSweep(t *testing.T) {
	c := newTestCache(t, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Put(ctx, "owner-2", []core.Message{{ID: "2"}}, core.ProvenanceModel))
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, c.Sweep(ctx))
	assert.Empty(t, c.entries)
}

func TestMemoryCacheEntriesSnapshot(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "owner-1", []core.Message{{ID: "1"}}, core.ProvenanceModel))
	require.NoError(t, c.Put(ctx, "owner-2", []core.Message{{ID: "2"}}, core.ProvenanceUser))

	entries := c.Entries(ctx)
	assert.Len(t, entries, 2)
}
