package core

import (
	"strings"
	"time"
)

// Classification labels produced by the LLM classifier.
const (
	LabelSpam    = "spam"
	LabelNotSpam = "not-spam"
)

// Provenance tags how a result set was produced
type Provenance string

const (
	// ProvenanceModel marks results produced by the classifier
	ProvenanceModel Provenance = "model prediction"
	// ProvenanceUser marks results replaced by an uploaded correction
	ProvenanceUser Provenance = "user corrected"
)

// Message represents a single mailbox message and its classification
type Message struct {
	ID         string
	Sender     string
	Subject    string
	Body       string
	Prediction string
	// Extra holds columns carried through a correction upload that are not
	// part of the canonical schema.
	Extra map[string]string
}

// IsSpam reports whether the message's prediction is exactly the spam label,
// after trimming and lower-casing.
func (m *Message) IsSpam() bool {
	return strings.TrimSpace(strings.ToLower(m.Prediction)) == LabelSpam
}

// ResultEntry is one owner's cached classification run
type ResultEntry struct {
	OwnerID    string
	Messages   []Message
	Provenance Provenance
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *ResultEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Summary represents the counts reported back after a detection run
type Summary struct {
	Total   int        `json:"total"`
	Spam    int        `json:"spam"`
	NotSpam int        `json:"not_spam"`
	Source  Provenance `json:"source"`
}

// Summarize counts spam and non-spam messages
func Summarize(messages []Message, source Provenance) Summary {
	s := Summary{Total: len(messages), Source: source}
	for i := range messages {
		if messages[i].IsSpam() {
			s.Spam++
		}
	}
	s.NotSpam = s.Total - s.Spam
	return s
}
