// Package kb implements the knowledge base store (spec §4.1, C1):
// chunked documents with embeddings, dedupe-by-key upserts, and
// cosine-similarity search.
package kb

import "time"

// Document is a saved knowledge document.
type Document struct {
	ConversationID string
	DocumentID     string
	DedupeKey      string
	Title          string
	Content        string
	MessageID      string
	CreatedBy      string
	Tags           []string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaveInput is the input to Store.Save.
type SaveInput struct {
	DocumentID string // optional; generated when empty
	DedupeKey  string // optional
	Title      string
	Content    string
	MessageID  string
	CreatedBy  string
	Tags       []string
	Metadata   map[string]any
	// OnlyUpdate is accepted but not read by Save: Save performs the
	// full upsert-then-reembed whether or not it is set, inserting a new
	// document when no match exists. It does not change dedupe
	// semantics.
	OnlyUpdate bool
}

// SearchResult is one ranked hit from Store.Search.
type SearchResult struct {
	Text       string
	DocumentID string
	Score      float64
}
