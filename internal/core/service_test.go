package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMail struct {
	messages []Message
	fetchErr error
	trashed  []string
	trashErr error
}

func (f *fakeMail) FetchByDateRange(_ context.Context, _, _ time.Time) ([]Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeMail) Trash(_ context.Context, ids []string) (int, error) {
	if f.trashErr != nil {
		return 0, f.trashErr
	}
	f.trashed = append(f.trashed, ids...)
	return len(ids), nil
}

type fakeLLM struct {
	labels map[string]string
	err    error
}

func (f *fakeLLM) Classify(_ context.Context, _, subject, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if label, ok := f.labels[subject]; ok {
		return label, nil
	}
	return LabelNotSpam, nil
}

type fakeCache struct {
	entries map[string]*ResultEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*ResultEntry)}
}

func (f *fakeCache) Put(_ context.Context, ownerID string, messages []Message, provenance Provenance) error {
	f.entries[ownerID] = &ResultEntry{
		OwnerID:    ownerID,
		Messages:   messages,
		Provenance: provenance,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	return nil
}

func (f *fakeCache) Get(_ context.Context, ownerID string) (*ResultEntry, bool) {
	entry, ok := f.entries[ownerID]
	return entry, ok
}

func (f *fakeCache) Sweep(_ context.Context) error { return nil }

func (f *fakeCache) Remove(_ context.Context, ownerID string) error {
	delete(f.entries, ownerID)
	return nil
}

func (f *fakeCache) Entries(_ context.Context) []ResultEntry {
	var out []ResultEntry
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out
}

func newTestService(llm LLMClient, cache ResultCache) *SweepService {
	return NewSweepService(llm, cache, zap.NewNop())
}

func TestDetectSpamClassifiesAndCaches(t *testing.T) {
	mail := &fakeMail{messages: []Message{
		{ID: "1", Sender: "a@example.com", Subject: "win money now"},
		{ID: "2", Sender: "b@example.com", Subject: "meeting notes"},
		{ID: "3", Sender: "c@example.com", Subject: "cheap pills"},
	}}
	llm := &fakeLLM{labels: map[string]string{
		"win money now": LabelSpam,
		"cheap pills":   LabelSpam,
	}}
	cache := newFakeCache()
	svc := newTestService(llm, cache)

	summary, err := svc.DetectSpam(context.Background(), mail, "owner-1", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Spam)
	assert.Equal(t, 1, summary.NotSpam)
	assert.Equal(t, ProvenanceModel, summary.Source)

	entry, ok := cache.Get(context.Background(), "owner-1")
	require.True(t, ok)
	assert.Equal(t, ProvenanceModel, entry.Provenance)
	assert.Equal(t, LabelSpam, entry.Messages[0].Prediction)
	assert.Equal(t, LabelNotSpam, entry.Messages[1].Prediction)
}

func TestDetectSpamEmptyRangeSkipsCache(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(&fakeLLM{}, cache)

	summary, err := svc.DetectSpam(context.Background(), &fakeMail{}, "owner-1", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, Summary{Source: ProvenanceModel}, summary)

	_, ok := cache.Get(context.Background(), "owner-1")
	assert.False(t, ok, "empty fetch must not create a cache entry")
}

func TestDetectSpamFetchFailure(t *testing.T) {
	mail := &fakeMail{fetchErr: errors.New("quota exceeded")}
	svc := newTestService(&fakeLLM{}, newFakeCache())

	_, err := svc.DetectSpam(context.Background(), mail, "owner-1", time.Now(), time.Now())
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
}

func TestDetectSpamClassifyFailure(t *testing.T) {
	mail := &fakeMail{messages: []Message{{ID: "1", Subject: "hello"}}}
	llm := &fakeLLM{err: errors.New("model unavailable")}
	cache := newFakeCache()
	svc := newTestService(llm, cache)

	_, err := svc.DetectSpam(context.Background(), mail, "owner-1", time.Now(), time.Now())
	require.Error(t, err)
	assert.True(t, IsUpstream(err))

	_, ok := cache.Get(context.Background(), "owner-1")
	assert.False(t, ok, "failed run must not be cached")
}

func TestResultsMissing(t *testing.T) {
	svc := newTestService(&fakeLLM{}, newFakeCache())

	_, err := svc.Results(context.Background(), "owner-1")
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = svc.Results(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestApplyCorrections(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(&fakeLLM{}, cache)

	corrected := []Message{
		{ID: "1", Prediction: LabelNotSpam},
		{ID: "2", Prediction: LabelSpam},
	}
	summary, err := svc.ApplyCorrections(context.Background(), "owner-1", corrected)
	require.NoError(t, err)
	assert.Equal(t, ProvenanceUser, summary.Source)
	assert.Equal(t, 1, summary.Spam)

	entry, ok := cache.Get(context.Background(), "owner-1")
	require.True(t, ok)
	assert.Equal(t, ProvenanceUser, entry.Provenance)
}

func TestSpamIDs(t *testing.T) {
	messages := []Message{
		{ID: "1", Prediction: "spam"},
		{ID: "2", Prediction: "Spam "},
		{ID: "3", Prediction: "not-spam"},
		{ID: "4", Prediction: ""},
	}
	assert.Equal(t, []string{"1", "2"}, SpamIDs(messages))
}

func TestTrashSpam(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(&fakeLLM{}, cache)
	require.NoError(t, cache.Put(context.Background(), "owner-1", []Message{
		{ID: "1", Prediction: LabelSpam},
		{ID: "2", Prediction: LabelNotSpam},
		{ID: "3", Prediction: LabelSpam},
	}, ProvenanceModel))

	mail := &fakeMail{}
	moved, provenance, err := svc.TrashSpam(context.Background(), mail, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Equal(t, ProvenanceModel, provenance)
	assert.Equal(t, []string{"1", "3"}, mail.trashed)
}

func TestTrashSpamNothingToMove(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(&fakeLLM{}, cache)
	require.NoError(t, cache.Put(context.Background(), "owner-1", []Message{
		{ID: "1", Prediction: LabelNotSpam},
	}, ProvenanceUser))

	mail := &fakeMail{trashErr: errors.New("must not be called")}
	moved, provenance, err := svc.TrashSpam(context.Background(), mail, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
	assert.Equal(t, ProvenanceUser, provenance)
}

func TestTrashSpamNoResults(t *testing.T) {
	svc := newTestService(&fakeLLM{}, newFakeCache())

	_, _, err := svc.TrashSpam(context.Background(), &fakeMail{}, "owner-1")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestForget(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(&fakeLLM{}, cache)
	require.NoError(t, cache.Put(context.Background(), "owner-1", []Message{{ID: "1"}}, ProvenanceModel))

	require.NoError(t, svc.Forget(context.Background(), "owner-1"))
	_, ok := cache.Get(context.Background(), "owner-1")
	assert.False(t, ok)
}
