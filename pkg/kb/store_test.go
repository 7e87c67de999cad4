package kb_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/dbstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// scriptedEmbedder assigns a fixed vector to any text containing one
// of its keywords, so similarity ordering in tests is deterministic
// rather than depending on a real embedding model.
type scriptedEmbedder struct {
	byKeyword map[string][]float64
	fallback  []float64
}

func (e *scriptedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	for kw, vec := range e.byKeyword {
		if containsFold(text, kw) {
			return vec, nil
		}
	}
	return e.fallback, nil
}

func containsFold(haystack, needle string) bool {
	h := []rune(haystack)
	n := []rune(needle)
	toLower := func(rs []rune) []rune {
		out := make([]rune, len(rs))
		for i, r := range rs {
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			out[i] = r
		}
		return out
	}
	h, n = toLower(h), toLower(n)
	if len(n) == 0 || len(n) > len(h) {
		return len(n) == 0
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if h[i+j] != n[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func newTestStore(t *testing.T) (*kb.Store, *dbstore.Client) {
	t.Helper()
	client := dbstore.SetupTestDatabase(t)
	embedder := &scriptedEmbedder{
		byKeyword: map[string][]float64{
			"cat":     {1, 0, 0},
			"mat":     {0.9, 0.1, 0},
			"quantum": {0, 0, 1},
		},
		fallback: []float64{0, 1, 0},
	}
	return kb.NewStore(client.Pool, embedder, 1000, 200, 5, 10), client
}

func TestStore_SaveAndSearch_RanksRelevantChunkHigher(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	conversationID := "conv_" + uuid.NewString()

	_, err := store.Save(ctx, conversationID, kb.SaveInput{
		Title:   "Pets",
		Content: "The cat sat on the mat.",
	})
	require.NoError(t, err)

	_, err = store.Save(ctx, conversationID, kb.SaveInput{
		Title:   "Physics",
		Content: "Quantum chromodynamics describes the strong interaction.",
	})
	require.NoError(t, err)

	results, err := store.Search(ctx, conversationID, "tell me about the cat", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Contains(t, results[0].Text, "cat")
}

func TestStore_Search_EmptyKnowledgeBaseReturnsEmptySlice(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	conversationID := "conv_" + uuid.NewString()

	results, err := store.Search(ctx, conversationID, "anything", 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestStore_Save_UpsertByDedupeKeyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	conversationID := "conv_" + uuid.NewString()
	dedupeKey := kb.StableDedupeKey(conversationID, "weekly-report", "Weekly Report")

	first, err := store.Save(ctx, conversationID, kb.SaveInput{
		DedupeKey: dedupeKey,
		Title:     "Weekly Report",
		Content:   "Version one of the report.",
	})
	require.NoError(t, err)

	second, err := store.Save(ctx, conversationID, kb.SaveInput{
		DedupeKey: dedupeKey,
		Title:     "Weekly Report",
		Content:   "Version two of the report.",
	})
	require.NoError(t, err)

	require.Equal(t, first.DocumentID, second.DocumentID)

	docs, err := store.Get(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Version two of the report.", docs[0].Content)
}

func TestStore_Save_RejectsEmptyTitleOrContent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	conversationID := "conv_" + uuid.NewString()

	_, err := store.Save(ctx, conversationID, kb.SaveInput{Title: "", Content: "body"})
	require.Error(t, err)

	_, err = store.Save(ctx, conversationID, kb.SaveInput{Title: "title", Content: "   "})
	require.Error(t, err)
}

func TestStore_DeleteRemovesDocumentAndVectors(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	conversationID := "conv_" + uuid.NewString()

	doc, err := store.Save(ctx, conversationID, kb.SaveInput{
		Title:   "Temp",
		Content: "Some quantum content here.",
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, doc.DocumentID))

	_, err = store.GetOne(ctx, doc.DocumentID)
	require.Error(t, err)

	results, err := store.Search(ctx, conversationID, "quantum", 5)
	require.NoError(t, err)
	require.Empty(t, results)
}
