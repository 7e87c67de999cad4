// Package chat is the per-turn dispatcher (spec §4.7, C7): decides
// single-agent vs. team mode, detects the team-activation phrase and
// the `[TEAM_CONFIRMED]` marker, drives the team orchestrator (C6) or
// the agent tool loop (C3), persists messages, and schedules
// background team creation.
package chat

import (
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
)

// Attachment describes one file attached to a turn. Content is the
// already-extracted text of the document (extraction from raw bytes
// is an upstream concern, not this package's).
type Attachment struct {
	MimeType string
	Content  string
}

// TurnRequest is one inbound chat turn.
type TurnRequest struct {
	ConversationID  string
	ParentMessageID string
	UserText        string
	Attachments     []Attachment
}

// EventKind discriminates the variants of Event. Mirrors
// orchestration.EventKind plus a terminal Final kind, so a single
// channel type can carry both team-mode and direct-mode turns to the
// transport layer.
type EventKind string

const (
	EventStream        EventKind = "stream"
	EventThinking      EventKind = "thinking"
	EventAgentStart    EventKind = "agent_start"
	EventAgentComplete EventKind = "agent_complete"
	EventFinal         EventKind = "final"
)

// Event is one item on the channel Dispatcher.Submit returns.
type Event struct {
	Kind EventKind

	// EventThinking
	ThinkingAgent, ThinkingAction, ThinkingText string

	// EventAgentStart / EventAgentComplete
	Agent         *orchestration.TeamAgent
	AgentResponse string

	// EventStream: full text accumulated so far (spec §4.9's
	// accumulated-not-delta contract).
	StreamAccumulated string

	// EventFinal
	Final *FinalResult
}

// FinalResult is the terminal frame of a turn (spec §4.9's Final
// event contract).
type FinalResult struct {
	Success              bool
	Conversation         *convstore.Conversation
	Title                string
	RequestMessage       *convstore.Message
	ResponseMessage      *convstore.Message
	QAWaitingForApproval bool
	TeamCreated          bool
	Error                string
}
