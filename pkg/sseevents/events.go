// Package sseevents defines the typed event payloads written to a
// chat turn's text/event-stream response and the writer that frames
// them onto the wire.
//
// ════════════════════════════════════════════════════════════════
// Event Lifecycle
// ════════════════════════════════════════════════════════════════
//
// A turn emits, in order:
//
//	Created (or Sync, on a resumed/duplicate request)
//	Progress*   (team mode only: on_thinking / on_agent_start / on_agent_complete)
//	TextChunk*  (repeated; Text is the FULL ACCUMULATED text to date,
//	             not a delta — clients replace, they do not concatenate)
//	Final       (always last; terminal for the HTTP response)
//
// Unlike the persistent event.created/event.completed pattern this is
// adapted from, nothing here is persisted or replayed from the
// database — an SSE stream backs exactly one in-flight HTTP request,
// and the orchestration/chat state store (not this package) is what a
// reconnect resumes from.
// ════════════════════════════════════════════════════════════════
package sseevents

// Created is the first frame of a brand new turn.
type Created struct {
	Created        bool   `json:"created"`
	Message        string `json:"message,omitempty"`
	ConversationID string `json:"conversationId"`
}

// Sync is the first frame when the request maps onto an
// already-in-flight or already-completed turn instead of a new one.
type Sync struct {
	Sync           bool   `json:"sync"`
	ConversationID string `json:"conversationId"`
}

// Progress event kinds (team orchestration only).
const (
	ProgressThinking      = "on_thinking"
	ProgressAgentStart    = "on_agent_start"
	ProgressAgentComplete = "on_agent_complete"
)

// Progress reports team-orchestration lifecycle events: which agent is
// thinking, starting, or has completed, plus a free-form data payload.
type Progress struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// TextChunk carries the full accumulated assistant text produced so
// far. Index distinguishes concurrent streams sharing one connection
// (e.g. thinking vs response); most turns only ever use index 0.
type TextChunk struct {
	Type           string `json:"type"`
	Text           string `json:"text"`
	Index          int    `json:"index"`
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// NewTextChunk builds a TextChunk with Type fixed to "text".
func NewTextChunk(text string, index int, messageID, conversationID string) TextChunk {
	return TextChunk{Type: "text", Text: text, Index: index, MessageID: messageID, ConversationID: conversationID}
}

// ErrorPayload is the Final event's optional error detail.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Final is always the last frame of a turn, successful or not.
type Final struct {
	Final                 bool          `json:"final"`
	Conversation          any           `json:"conversation,omitempty"`
	Title                 string        `json:"title,omitempty"`
	RequestMessage        any           `json:"requestMessage,omitempty"`
	ResponseMessage       any           `json:"responseMessage,omitempty"`
	QAWaitingForApproval  *bool         `json:"qaWaitingForApproval,omitempty"`
	TeamCreated           *bool         `json:"teamCreated,omitempty"`
	Error                 *ErrorPayload `json:"error,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

// WithQAWaitingForApproval sets the Final event's qaWaitingForApproval flag.
func (f Final) WithQAWaitingForApproval(waiting bool) Final {
	f.QAWaitingForApproval = boolPtr(waiting)
	return f
}

// WithTeamCreated sets the Final event's teamCreated flag.
func (f Final) WithTeamCreated(created bool) Final {
	f.TeamCreated = boolPtr(created)
	return f
}

// WithError sets the Final event's error payload.
func (f Final) WithError(message string) Final {
	f.Error = &ErrorPayload{Message: message}
	return f
}
