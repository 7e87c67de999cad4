package convstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx-backed ConversationStore + MessageStore
// implementation, grounded on pkg/services/chat_service.go's
// get-or-create / verify-parent-exists access patterns, translated
// from ent query builders into hand-written SQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore builds a Store bound to pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ ConversationStore = (*Store)(nil)
var _ MessageStore = (*Store)(nil)

// Create inserts a new conversation and returns it.
func (s *Store) Create(ctx context.Context, title string) (*Conversation, error) {
	id := uuid.NewString()
	now := time.Now()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES ($1, $2, $3, $3)`,
		id, title, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return &Conversation{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

// Get loads a conversation and its team roster.
func (s *Store) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	var c Conversation
	c.ID = conversationID

	err := s.pool.QueryRow(ctx,
		`SELECT title, team_objective, coalesce(team_file_id, ''), created_at, updated_at
		 FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&c.Title, &c.TeamObjective, &c.TeamFileID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	agents, err := s.loadTeamAgents(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	c.TeamAgents = agents

	return &c, nil
}

func (s *Store) loadTeamAgents(ctx context.Context, conversationID string) ([]TeamAgentRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT agent_id, name, role, tier, expertise, instructions, behavioral_level, provider, model, position
		 FROM team_agents WHERE conversation_id = $1 ORDER BY position`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load team agents: %w", err)
	}
	defer rows.Close()

	var agents []TeamAgentRecord
	for rows.Next() {
		a := TeamAgentRecord{ConversationID: conversationID}
		if err := rows.Scan(&a.AgentID, &a.Name, &a.Role, &a.Tier, &a.Expertise, &a.Instructions,
			&a.BehavioralLevel, &a.Provider, &a.Model, &a.Position); err != nil {
			return nil, fmt.Errorf("scan team agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// SetTeam replaces a conversation's team roster and objective/file
// reference in a single transaction (spec §3's "at most one team
// specification per conversation at a time" invariant).
func (s *Store) SetTeam(ctx context.Context, conversationID, objective, fileID string, agents []TeamAgentRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set team: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET team_objective = $2, team_file_id = $3, updated_at = now() WHERE id = $1`,
		conversationID, objective, nullIfEmpty(fileID),
	); err != nil {
		return fmt.Errorf("update conversation team fields: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM team_agents WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("clear existing team agents: %w", err)
	}

	for _, a := range agents {
		if _, err := tx.Exec(ctx,
			`INSERT INTO team_agents (agent_id, conversation_id, name, role, tier, expertise, instructions, behavioral_level, provider, model, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.AgentID, conversationID, a.Name, a.Role, a.Tier, a.Expertise, a.Instructions,
			a.BehavioralLevel, a.Provider, a.Model, a.Position,
		); err != nil {
			return fmt.Errorf("insert team agent %q: %w", a.AgentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit set team: %w", err)
	}
	return nil
}

// ClearTeam removes a conversation's team roster and objective/file
// reference.
func (s *Store) ClearTeam(ctx context.Context, conversationID string) error {
	return s.SetTeam(ctx, conversationID, "", "", nil)
}

// SetTitle updates a conversation's title.
func (s *Store) SetTitle(ctx context.Context, conversationID, title string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE conversations SET title = $2, updated_at = now() WHERE id = $1`,
		conversationID, title,
	)
	if err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

// Save inserts a message, generating an id if msg.ID is empty.
func (s *Store) Save(ctx context.Context, msg Message) (*Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	contentJSON, err := marshalContent(msg.Content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	metadataJSON, err := marshalMetadata(msg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, parent_message_id, is_created_by_user, text, content, sender, unfinished, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		msg.ID, msg.ConversationID, nullIfEmpty(msg.ParentMessageID), msg.IsCreatedByUser,
		msg.Text, contentJSON, msg.Sender, msg.Unfinished, metadataJSON, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	return &msg, nil
}

// ListByConversation returns all messages for a conversation, oldest first.
func (s *Store) ListByConversation(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, coalesce(parent_message_id::text, ''), is_created_by_user, coalesce(text, ''), content, sender, unfinished, metadata, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// GetMessage loads a single message by id.
func (s *Store) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, conversation_id, coalesce(parent_message_id::text, ''), is_created_by_user, coalesce(text, ''), content, sender, unfinished, metadata, created_at
		 FROM messages WHERE id = $1`,
		messageID,
	)
	m, err := scanMessage(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(r rowScanner) (*Message, error) {
	var m Message
	var contentJSON, metadataJSON []byte

	if err := r.Scan(&m.ID, &m.ConversationID, &m.ParentMessageID, &m.IsCreatedByUser, &m.Text,
		&contentJSON, &m.Sender, &m.Unfinished, &metadataJSON, &m.CreatedAt); err != nil {
		return nil, err
	}

	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &m.Content); err != nil {
			return nil, fmt.Errorf("unmarshal message content: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal message metadata: %w", err)
		}
	}

	return &m, nil
}

func marshalContent(parts []ContentPart) ([]byte, error) {
	if len(parts) == 0 {
		return nil, nil
	}
	return json.Marshal(parts)
}

func marshalMetadata(meta map[string]any) ([]byte, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	return json.Marshal(meta)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
