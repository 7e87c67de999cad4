package kbtools_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/dbstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kbtools"
)

type fixedEmbedder struct{ vec []float64 }

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.vec, nil
}

func TestKBTools_ListSearchRead(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := kb.NewStore(client.Pool, &fixedEmbedder{vec: []float64{1, 0, 0}}, 1000, 200, 5, 10)
	conversationID := "conv_" + uuid.NewString()

	doc, err := store.Save(context.Background(), conversationID, kb.SaveInput{
		Title:   "Runbook",
		Content: "Restart the service.\nCheck the logs.\nPage on-call if it recurs.",
	})
	require.NoError(t, err)

	tools := kbtools.ForConversation(conversationID, store)
	require.Len(t, tools, 3)

	listOut, err := tools[0].Execute(context.Background(), "{}")
	require.NoError(t, err)
	require.Contains(t, listOut, "Runbook (ID: "+doc.DocumentID+")")

	searchOut, err := tools[1].Execute(context.Background(), `{"query":"restart","k":5}`)
	require.NoError(t, err)
	require.Contains(t, searchOut, "Runbook")
	require.Contains(t, searchOut, "Restart the service")

	readOut, err := tools[2].Execute(context.Background(), `{"document_id":"`+doc.DocumentID+`"}`)
	require.NoError(t, err)
	require.Equal(t, "Restart the service.\nCheck the logs.\nPage on-call if it recurs.", readOut)
}

func TestListDocumentsTool_EmptyConversationReportsNoDocuments(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := kb.NewStore(client.Pool, &fixedEmbedder{vec: []float64{1, 0, 0}}, 1000, 200, 5, 10)
	tools := kbtools.ForConversation("conv_"+uuid.NewString(), store)

	out, err := tools[0].Execute(context.Background(), "{}")
	require.NoError(t, err)
	require.Contains(t, out, "No documents")
}

func TestSearchDocumentsTool_BlankQueryReportsError(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := kb.NewStore(client.Pool, &fixedEmbedder{vec: []float64{1, 0, 0}}, 1000, 200, 5, 10)
	tools := kbtools.ForConversation("conv_"+uuid.NewString(), store)

	out, err := tools[1].Execute(context.Background(), `{"query":"   "}`)
	require.NoError(t, err)
	require.Contains(t, out, "Error")
}

func TestReadKnowledgeDocumentTool_LineRange(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := kb.NewStore(client.Pool, &fixedEmbedder{vec: []float64{1, 0, 0}}, 1000, 200, 5, 10)
	conversationID := "conv_" + uuid.NewString()

	doc, err := store.Save(context.Background(), conversationID, kb.SaveInput{
		Title:   "Runbook",
		Content: "line one\nline two\nline three",
	})
	require.NoError(t, err)

	tools := kbtools.ForConversation(conversationID, store)

	out, err := tools[2].Execute(context.Background(), `{"document_id":"`+doc.DocumentID+`","start_line":2,"end_line":3}`)
	require.NoError(t, err)
	require.Equal(t, "line two\nline three", out)
}

func TestReadKnowledgeDocumentTool_StartLineExceedsLengthReportsError(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := kb.NewStore(client.Pool, &fixedEmbedder{vec: []float64{1, 0, 0}}, 1000, 200, 5, 10)
	conversationID := "conv_" + uuid.NewString()

	doc, err := store.Save(context.Background(), conversationID, kb.SaveInput{
		Title:   "Runbook",
		Content: "only one line",
	})
	require.NoError(t, err)

	tools := kbtools.ForConversation(conversationID, store)

	out, err := tools[2].Execute(context.Background(), `{"document_id":"`+doc.DocumentID+`","start_line":99}`)
	require.NoError(t, err)
	require.Contains(t, out, "Error")
	require.Contains(t, out, "exceeds document length")
}
