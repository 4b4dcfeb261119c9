package core

import (
	"context"
	"time"
)

// MailClient defines the interface for talking to the user's mailbox.
// Implementations are bound to one authorized credential.
type MailClient interface {
	// FetchByDateRange returns messages received in [start, end) in
	// provider-supplied order, with headers extracted and bodies decoded
	// to plain text.
	FetchByDateRange(ctx context.Context, start, end time.Time) ([]Message, error)

	// Trash moves the given message IDs to trash one by one. It returns the
	// number of messages trashed and stops on the first failing call;
	// already-trashed messages stay trashed.
	Trash(ctx context.Context, ids []string) (int, error)
}

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Classify labels a single message as spam or not-spam
	Classify(ctx context.Context, sender, subject, body string) (string, error)
}

// ResultCache defines the interface for storing classification runs per owner
type ResultCache interface {
	// Put overwrites the owner's entry with the given messages and provenance
	Put(ctx context.Context, ownerID string, messages []Message, provenance Provenance) error

	// Get returns the owner's live entry, or (nil, false) when the entry is
	// missing or expired. An expired entry is removed as a side effect.
	Get(ctx context.Context, ownerID string) (*ResultEntry, bool)

	// Sweep removes all expired entries
	Sweep(ctx context.Context) error

	// Remove deletes the owner's entry
	Remove(ctx context.Context, ownerID string) error

	// Entries returns a snapshot of all live entries
	Entries(ctx context.Context) []ResultEntry
}
