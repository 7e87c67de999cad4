package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// Store is the pgx-backed knowledge base store (C1). Re-embedding runs
// synchronously inside Save, matching spec §4.1's "after upsert,
// synchronously invoke re-embedding" contract.
type Store struct {
	pool         *pgxpool.Pool
	embedder     provider.EmbeddingProvider
	chunkSize    int
	chunkOverlap int
	defaultTopK  int
	maxTopK      int
}

// NewStore builds a Store. chunkSize/chunkOverlap/defaultTopK/maxTopK
// come from config.KBConfig (spec §6's chunk size 1000/overlap 200,
// top-k 5/10 defaults).
func NewStore(pool *pgxpool.Pool, embedder provider.EmbeddingProvider, chunkSize, chunkOverlap, defaultTopK, maxTopK int) *Store {
	return &Store{
		pool:         pool,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		defaultTopK:  defaultTopK,
		maxTopK:      maxTopK,
	}
}

// Save upserts a document (filter is {conversationId, dedupeKey} when
// dedupeKey is non-empty, else {documentId}), then synchronously
// re-embeds it.
func (s *Store) Save(ctx context.Context, conversationID string, in SaveInput) (*Document, error) {
	title := strings.TrimSpace(in.Title)
	content := in.Content
	if title == "" {
		return nil, errs.NewKbInvalidInput("title", "must not be empty")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errs.NewKbInvalidInput("content", "must not be empty")
	}

	metadataJSON, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var existingID string
	var lookupErr error
	if in.DedupeKey != "" {
		lookupErr = s.pool.QueryRow(ctx,
			`SELECT document_id FROM knowledge_documents WHERE conversation_id = $1 AND dedupe_key = $2`,
			conversationID, in.DedupeKey).Scan(&existingID)
	} else if in.DocumentID != "" {
		lookupErr = s.pool.QueryRow(ctx,
			`SELECT document_id FROM knowledge_documents WHERE document_id = $1`,
			in.DocumentID).Scan(&existingID)
	} else {
		lookupErr = pgx.ErrNoRows
	}

	documentID := existingID
	isNew := false
	if lookupErr != nil {
		if lookupErr != pgx.ErrNoRows {
			return nil, fmt.Errorf("failed to look up existing document: %w", lookupErr)
		}
		isNew = true
		documentID = in.DocumentID
		if documentID == "" {
			documentID = fmt.Sprintf("kb_%s_%s", conversationID, uuid.NewString())
		}
	}

	now := time.Now()
	var dedupeKey any
	if in.DedupeKey != "" {
		dedupeKey = in.DedupeKey
	}

	if isNew {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO knowledge_documents
				(document_id, conversation_id, dedupe_key, title, content, message_id, created_by, tags, metadata, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
			ON CONFLICT (document_id) DO UPDATE SET
				title = EXCLUDED.title, content = EXCLUDED.content, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`,
			documentID, conversationID, dedupeKey, title, content, nullable(in.MessageID), in.CreatedBy, in.Tags, metadataJSON, now)
	} else {
		_, err = s.pool.Exec(ctx, `
			UPDATE knowledge_documents
			SET title = $2, content = $3, message_id = $4, created_by = $5, tags = $6, metadata = $7, updated_at = $8
			WHERE document_id = $1`,
			documentID, title, content, nullable(in.MessageID), in.CreatedBy, in.Tags, metadataJSON, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert knowledge document: %w", err)
	}

	if err := s.reembed(ctx, conversationID, documentID, content); err != nil {
		return nil, fmt.Errorf("failed to re-embed document %s: %w", documentID, err)
	}

	return s.GetOne(ctx, documentID)
}

// reembed splits content into chunks, embeds each, and atomically
// replaces the vector set for documentID (delete then insert).
func (s *Store) reembed(ctx context.Context, conversationID, documentID, content string) error {
	chunks := splitChunks(content, s.chunkSize, s.chunkOverlap)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_vectors WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	stored := 0
	var embedErr error
	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			// Spec §9: entries without vectors are silently skipped by
			// Search, so one failed chunk is skipped rather than failing
			// the save — it just won't be searchable until the next
			// re-embed. If every chunk fails, the save fails below.
			embedErr = err
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO knowledge_vectors (document_id, conversation_id, chunk_index, text, vector, metadata)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			documentID, conversationID, i, chunk, vec, nil); err != nil {
			return err
		}
		stored++
	}
	if stored == 0 && embedErr != nil {
		return fmt.Errorf("every chunk failed to embed: %w", embedErr)
	}

	return tx.Commit(ctx)
}

// Get returns all documents for a conversation.
func (s *Store) Get(ctx context.Context, conversationID string) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document_id, conversation_id, COALESCE(dedupe_key,''), title, content, COALESCE(message_id,''), created_by, tags, metadata, created_at, updated_at
		FROM knowledge_documents WHERE conversation_id = $1 ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetOne returns a single document by documentId, or errs.ErrKbNotFound.
func (s *Store) GetOne(ctx context.Context, documentID string) (*Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT document_id, conversation_id, COALESCE(dedupe_key,''), title, content, COALESCE(message_id,''), created_by, tags, metadata, created_at, updated_at
		FROM knowledge_documents WHERE document_id = $1`, documentID)
	d, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.ErrKbNotFound
		}
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return d, nil
}

// Delete removes a document and (via ON DELETE CASCADE) its vectors.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM knowledge_documents WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Clear removes every document for a conversation.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM knowledge_documents WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

// FormatContext returns the document corpus joined into a single
// prompt block, for context injection without retrieval. query is
// currently unused (no ranking is applied when returning the full
// corpus) but is accepted per the spec's signature for forward
// compatibility with a query-scoped variant.
func (s *Store) FormatContext(ctx context.Context, conversationID string, query string) (string, error) {
	docs, err := s.Get(ctx, conversationID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, d := range docs {
		b.WriteString("## ")
		b.WriteString(d.Title)
		b.WriteString("\n\n")
		b.WriteString(d.Content)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// Search returns the top-k chunks by cosine similarity, clamped to
// [1, maxTopK]. Entries without vectors (e.g. a failed embed) are
// silently skipped (§9 open question resolution).
func (s *Store) Search(ctx context.Context, conversationID, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = s.defaultTopK
	}
	if k > s.maxTopK {
		k = s.maxTopK
	}
	if k < 1 {
		k = 1
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT document_id, text, vector FROM knowledge_vectors WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	type scored struct {
		SearchResult
	}
	var all []scored
	for rows.Next() {
		var docID, text string
		var vec []float64
		if err := rows.Scan(&docID, &text, &vec); err != nil {
			return nil, err
		}
		all = append(all, scored{SearchResult{Text: text, DocumentID: docID, Score: cosineSimilarity(queryVec, vec)}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	if len(all) > k {
		all = all[:k]
	}

	out := make([]SearchResult, len(all))
	for i, r := range all {
		out[i] = r.SearchResult
	}
	return out, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (*Document, error) {
	d := &Document{}
	var metadataJSON []byte
	if err := r.Scan(&d.DocumentID, &d.ConversationID, &d.DedupeKey, &d.Title, &d.Content, &d.MessageID, &d.CreatedBy, &d.Tags, &metadataJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		_ = json.Unmarshal(metadataJSON, &d.Metadata)
	}
	return d, nil
}
