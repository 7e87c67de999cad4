// Package kbtools adapts pkg/kb's Store into the tool-loop's Tool
// interface (spec §4.4, C4): list_documents, search_documents, and
// read_knowledge_document, each scoped to a single conversation.
package kbtools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/toolloop"
)

// previewLen caps the logged output preview, matching the teacher's
// truncate-for-logging discipline in mcp.TruncateForStorage.
const previewLen = 800

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "... (truncated)"
}

func logToolCall(name string, start time.Time, output string, err error) {
	duration := time.Since(start)
	if err != nil {
		slog.Warn("kb tool call failed", "tool", name, "duration_ms", duration.Milliseconds(), "error", err)
		return
	}
	slog.Info("kb tool call completed", "tool", name, "duration_ms", duration.Milliseconds(),
		"output_bytes", len(output), "output_preview", preview(output))
}

// ListDocumentsTool lists every knowledge document saved for a conversation.
type ListDocumentsTool struct {
	ConversationID string
	Store          *kb.Store
}

func (t *ListDocumentsTool) Name() string { return "list_documents" }
func (t *ListDocumentsTool) Description() string {
	return "List the knowledge documents saved for this conversation, with titles and ids."
}
func (t *ListDocumentsTool) InputSchema() string {
	return `{"type":"object","properties":{},"additionalProperties":false}`
}

func (t *ListDocumentsTool) Execute(ctx context.Context, _ string) (string, error) {
	start := time.Now()
	docs, err := t.Store.Get(ctx, t.ConversationID)
	if err != nil {
		logToolCall(t.Name(), start, "", err)
		return "", err
	}

	if len(docs) == 0 {
		out := "No documents have been saved to this conversation's knowledge base yet."
		logToolCall(t.Name(), start, out, nil)
		return out, nil
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "- %s (ID: %s)\n", d.Title, d.DocumentID)
	}
	out := strings.TrimRight(b.String(), "\n")
	logToolCall(t.Name(), start, out, nil)
	return out, nil
}

// SearchDocumentsTool runs a similarity search over a conversation's
// knowledge base.
type SearchDocumentsTool struct {
	ConversationID string
	Store          *kb.Store
}

func (t *SearchDocumentsTool) Name() string { return "search_documents" }
func (t *SearchDocumentsTool) Description() string {
	return "Search the knowledge base for chunks relevant to a query, ranked by similarity."
}
func (t *SearchDocumentsTool) InputSchema() string {
	return `{"type":"object","properties":{"query":{"type":"string"},"k":{"type":"integer"}},"required":["query"]}`
}

func (t *SearchDocumentsTool) Execute(ctx context.Context, argumentsJSON string) (string, error) {
	start := time.Now()

	var args struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		err = fmt.Errorf("invalid arguments: %w", err)
		logToolCall(t.Name(), start, "", err)
		return "", err
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		out := "Error: a non-empty query is required."
		logToolCall(t.Name(), start, out, nil)
		return out, nil
	}

	results, err := t.Store.Search(ctx, t.ConversationID, query, args.K)
	if err != nil {
		logToolCall(t.Name(), start, "", err)
		return "", err
	}

	if len(results) == 0 {
		out := "No matching chunks found."
		logToolCall(t.Name(), start, out, nil)
		return out, nil
	}

	docs, err := t.Store.Get(ctx, t.ConversationID)
	if err != nil {
		logToolCall(t.Name(), start, "", err)
		return "", err
	}
	titles := make(map[string]string, len(docs))
	contents := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.DocumentID] = d.Title
		contents[d.DocumentID] = d.Content
	}

	var b strings.Builder
	for i, r := range results {
		title := titles[r.DocumentID]
		if title == "" {
			title = r.DocumentID
		}
		fmt.Fprintf(&b, "%d. %s (ID: %s)", i+1, title, r.DocumentID)
		if startLine, endLine, ok := locateLines(contents[r.DocumentID], r.Text); ok {
			fmt.Fprintf(&b, " [lines %d-%d]", startLine, endLine)
		}
		b.WriteString("\n")
		b.WriteString(r.Text)
		b.WriteString("\n\n")
	}
	out := strings.TrimRight(b.String(), "\n")
	logToolCall(t.Name(), start, out, nil)
	return out, nil
}

// locateLines finds chunk's first occurrence inside content and
// returns its inclusive 1-based start/end line numbers. Returns
// ok=false when chunk can't be located (e.g. it was re-chunked since
// the document's current content was last saved).
func locateLines(content, chunk string) (start, end int, ok bool) {
	if content == "" || chunk == "" {
		return 0, 0, false
	}
	idx := strings.Index(content, chunk)
	if idx < 0 {
		return 0, 0, false
	}
	start = strings.Count(content[:idx], "\n") + 1
	end = start + strings.Count(chunk, "\n")
	return start, end, true
}

// ReadKnowledgeDocumentTool returns the full content of one document,
// or an inclusive 1-based line range of it.
type ReadKnowledgeDocumentTool struct {
	ConversationID string
	Store          *kb.Store
}

func (t *ReadKnowledgeDocumentTool) Name() string { return "read_knowledge_document" }
func (t *ReadKnowledgeDocumentTool) Description() string {
	return "Read a knowledge document by id, in full or by an inclusive 1-based line range."
}
func (t *ReadKnowledgeDocumentTool) InputSchema() string {
	return `{"type":"object","properties":{"document_id":{"type":"string"},"start_line":{"type":"integer"},"end_line":{"type":"integer"}},"required":["document_id"]}`
}

func (t *ReadKnowledgeDocumentTool) Execute(ctx context.Context, argumentsJSON string) (string, error) {
	start := time.Now()

	var args struct {
		DocumentID string `json:"document_id"`
		StartLine  *int   `json:"start_line"`
		EndLine    *int   `json:"end_line"`
	}
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		err = fmt.Errorf("invalid arguments: %w", err)
		logToolCall(t.Name(), start, "", err)
		return "", err
	}

	doc, err := t.Store.GetOne(ctx, args.DocumentID)
	if err != nil {
		logToolCall(t.Name(), start, "", err)
		return "", err
	}

	if strings.TrimSpace(doc.Content) == "" {
		out := fmt.Sprintf("Error: document %s has no content.", args.DocumentID)
		logToolCall(t.Name(), start, out, nil)
		return out, nil
	}

	if args.StartLine == nil && args.EndLine == nil {
		logToolCall(t.Name(), start, doc.Content, nil)
		return doc.Content, nil
	}

	lines := strings.Split(doc.Content, "\n")
	startLine := 1
	if args.StartLine != nil {
		startLine = *args.StartLine
	}
	endLine := len(lines)
	if args.EndLine != nil {
		endLine = *args.EndLine
	}

	if startLine < 1 || startLine > len(lines) {
		out := fmt.Sprintf("Error: start_line %d exceeds document length (%d lines).", startLine, len(lines))
		logToolCall(t.Name(), start, out, nil)
		return out, nil
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if endLine < startLine {
		out := fmt.Sprintf("Error: end_line %d is before start_line %d.", endLine, startLine)
		logToolCall(t.Name(), start, out, nil)
		return out, nil
	}

	out := strings.Join(lines[startLine-1:endLine], "\n")
	logToolCall(t.Name(), start, out, nil)
	return out, nil
}

// ForConversation returns the full kb tool suite scoped to conversationID.
func ForConversation(conversationID string, store *kb.Store) []toolloop.Tool {
	return []toolloop.Tool{
		&ListDocumentsTool{ConversationID: conversationID, Store: store},
		&SearchDocumentsTool{ConversationID: conversationID, Store: store},
		&ReadKnowledgeDocumentTool{ConversationID: conversationID, Store: store},
	}
}
