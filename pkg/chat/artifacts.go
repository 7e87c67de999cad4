package chat

import (
	"context"
	"log/slog"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/artifact"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
)

// persistArtifacts scans assistant text for ":::artifact{...}" blocks
// (C8) and upserts each into the conversation's knowledge base (C1),
// so a later turn's search_documents/read_knowledge_document tool
// calls can retrieve them. A failure to save one artifact is logged
// and does not affect the turn already in flight.
func (d *Dispatcher) persistArtifacts(ctx context.Context, conversationID, messageID, text string) {
	if d.KB == nil {
		return
	}
	for _, a := range artifact.Extract(text) {
		title := a.Title
		if title == "" {
			title = a.Identifier
		}
		if title == "" {
			title = "Untitled artifact"
		}
		_, err := d.KB.Save(ctx, conversationID, kb.SaveInput{
			DedupeKey: a.DedupeKey(conversationID),
			Title:     title,
			Content:   a.Content,
			MessageID: messageID,
			Metadata:  map[string]any{"artifactType": a.Type, "identifier": a.Identifier},
		})
		if err != nil {
			slog.Warn("failed to persist artifact into knowledge base", "conversation_id", conversationID, "identifier", a.Identifier, "error", err)
		}
	}
}
