// Package convstore abstracts conversation and message storage — the
// external collaborator the system is built against in a plugin host,
// given a concrete pgx-backed body here since this repo is standalone
// (spec §2, §3.1).
package convstore

import (
	"context"
	"encoding/json"
	"time"
)

// TeamAgentRecord is the persisted shape of a conversation's team
// roster (spec §3's TeamAgent value, concrete columns per §3.1).
type TeamAgentRecord struct {
	AgentID         string
	ConversationID  string
	Name            string
	Role            string
	Tier            int
	Expertise       string
	Instructions    string
	BehavioralLevel string
	Provider        string
	Model           string
	Position        int
}

// Conversation is the external Conversation entity (spec §3).
type Conversation struct {
	ID            string
	Title         string
	TeamObjective string
	TeamFileID    string
	TeamAgents    []TeamAgentRecord
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContentPart is one element of a Message's ordered `content` array.
// Text is decoded from either a bare JSON string or a `{"value":
// "..."}` object — see ExtractText.
type ContentPart struct {
	Type string          `json:"type"`
	Text json.RawMessage `json:"text,omitempty"`
}

// Message is the external Message entity (spec §3). Text is carried
// either as the scalar Text field or as ordered Content parts, or
// both; ExtractText tolerates every combination.
type Message struct {
	ID               string
	ConversationID   string
	ParentMessageID  string
	IsCreatedByUser  bool
	Text             string
	Content          []ContentPart
	Sender           string
	Unfinished       bool
	Metadata         map[string]any
	CreatedAt        time.Time
}

// ConversationStore persists Conversation records and their team
// rosters.
type ConversationStore interface {
	Create(ctx context.Context, title string) (*Conversation, error)
	Get(ctx context.Context, conversationID string) (*Conversation, error)
	SetTeam(ctx context.Context, conversationID, objective, fileID string, agents []TeamAgentRecord) error
	ClearTeam(ctx context.Context, conversationID string) error
	SetTitle(ctx context.Context, conversationID, title string) error
}

// MessageStore persists Message records for a conversation.
type MessageStore interface {
	Save(ctx context.Context, msg Message) (*Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
	GetMessage(ctx context.Context, messageID string) (*Message, error)
}
