package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepService is the core service for mailbox spam detection and cleanup
type SweepService struct {
	llmClient LLMClient
	cache     ResultCache
	logger    *zap.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(llmClient LLMClient, cache ResultCache, logger *zap.Logger) *SweepService {
	return &SweepService{
		llmClient: llmClient,
		cache:     cache,
		logger:    logger,
	}
}

// DetectSpam fetches the owner's messages for the date window, classifies each
// one, and caches the labelled result set under the owner's ID. When the window
// holds no messages, no cache entry is created.
func (s *SweepService) DetectSpam(ctx context.Context, mail MailClient, ownerID string, start, end time.Time) (Summary, error) {
	messages, err := mail.FetchByDateRange(ctx, start, end)
	if err != nil {
		return Summary{}, NewUpstreamError("mailbox fetch failed", err)
	}

	if len(messages) == 0 {
		s.logger.Info("No messages in date range",
			zap.Time("start", start),
			zap.Time("end", end))
		return Summary{Source: ProvenanceModel}, nil
	}

	// Classification runs one message at a time; there is no batching across
	// calls.
	for i := range messages {
		label, err := s.llmClient.Classify(ctx, messages[i].Sender, messages[i].Subject, messages[i].Body)
		if err != nil {
			return Summary{}, NewUpstreamError("classification failed", err)
		}
		messages[i].Prediction = label
	}

	if err := s.cache.Put(ctx, ownerID, messages, ProvenanceModel); err != nil {
		return Summary{}, err
	}

	summary := Summarize(messages, ProvenanceModel)
	s.logger.Info("Stored classification run",
		zap.String("owner", ownerPrefix(ownerID)),
		zap.Int("total", summary.Total),
		zap.Int("spam", summary.Spam))
	return summary, nil
}

// Results returns the owner's live result entry. ErrNoResults is returned when
// no entry exists or the entry has expired.
func (s *SweepService) Results(ctx context.Context, ownerID string) (*ResultEntry, error) {
	if ownerID == "" {
		return nil, ErrNoResults
	}
	entry, ok := s.cache.Get(ctx, ownerID)
	if !ok {
		return nil, ErrNoResults
	}
	return entry, nil
}

// ApplyCorrections replaces the owner's entry with user-corrected messages
func (s *SweepService) ApplyCorrections(ctx context.Context, ownerID string, messages []Message) (Summary, error) {
	if err := s.cache.Put(ctx, ownerID, messages, ProvenanceUser); err != nil {
		return Summary{}, err
	}

	summary := Summarize(messages, ProvenanceUser)
	s.logger.Info("Stored user corrections",
		zap.String("owner", ownerPrefix(ownerID)),
		zap.Int("total", summary.Total),
		zap.Int("spam", summary.Spam))
	return summary, nil
}

// SpamIDs selects the IDs of messages whose prediction is exactly the spam
// label after trimming and lower-casing.
func SpamIDs(messages []Message) []string {
	var ids []string
	for i := range messages {
		if messages[i].IsSpam() {
			ids = append(ids, messages[i].ID)
		}
	}
	return ids
}

// TrashSpam moves the owner's spam-labelled messages to trash. It returns the
// number of messages moved and the provenance of the result set acted on.
// With no spam in the entry the mail client is never called.
func (s *SweepService) TrashSpam(ctx context.Context, mail MailClient, ownerID string) (int, Provenance, error) {
	entry, err := s.Results(ctx, ownerID)
	if err != nil {
		return 0, "", err
	}

	ids := SpamIDs(entry.Messages)
	if len(ids) == 0 {
		return 0, entry.Provenance, nil
	}

	moved, err := mail.Trash(ctx, ids)
	if err != nil {
		// No rollback: messages trashed before the failure stay trashed.
		return moved, entry.Provenance, NewUpstreamError("trash failed", err)
	}

	s.logger.Info("Moved spam to trash",
		zap.String("owner", ownerPrefix(ownerID)),
		zap.Int("moved", moved),
		zap.String("source", string(entry.Provenance)))
	return moved, entry.Provenance, nil
}

// Forget drops the owner's cached entry (used on logout)
func (s *SweepService) Forget(ctx context.Context, ownerID string) error {
	return s.cache.Remove(ctx, ownerID)
}

// ownerPrefix shortens an owner ID for log output
func ownerPrefix(ownerID string) string {
	if len(ownerID) > 8 {
		return ownerID[:8]
	}
	return ownerID
}
