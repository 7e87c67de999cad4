package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StateStore is the pgx-backed persistence layer for OrchestrationState
// (spec §4.2, C2).
type StateStore struct {
	pool *pgxpool.Pool
}

func NewStateStore(pool *pgxpool.Pool) *StateStore {
	return &StateStore{pool: pool}
}

// Save upserts state keyed by (conversationId, parentMessageId),
// refreshing updatedAt. Callers persisting a PAUSED transition treat a
// failed Save as fatal for the turn (spec §4.6's failure policy) —
// Save itself just reports the error, the caller decides what "fatal"
// means.
func (s *StateStore) Save(ctx context.Context, state *State) error {
	leadPlanJSON, err := json.Marshal(state.LeadPlan)
	if err != nil {
		return fmt.Errorf("failed to marshal lead plan: %w", err)
	}
	specialistStatesJSON, err := json.Marshal(state.SpecialistStates)
	if err != nil {
		return fmt.Errorf("failed to marshal specialist states: %w", err)
	}
	sharedContextJSON, err := json.Marshal(state.SharedContext)
	if err != nil {
		return fmt.Errorf("failed to marshal shared context: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO orchestration_states
			(conversation_id, parent_message_id, status, paused_message_id, lead_plan, specialist_states, shared_context, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())
		ON CONFLICT (conversation_id, parent_message_id) DO UPDATE SET
			status = EXCLUDED.status,
			paused_message_id = EXCLUDED.paused_message_id,
			lead_plan = EXCLUDED.lead_plan,
			specialist_states = EXCLUDED.specialist_states,
			shared_context = EXCLUDED.shared_context,
			updated_at = now()`,
		state.ConversationID, state.ParentMessageID, string(state.Status),
		nullableID(state.PausedMessageID), leadPlanJSON, specialistStatesJSON, sharedContextJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert orchestration state: %w", err)
	}
	return nil
}

// GetLatest returns the most recently updated state for a conversation.
// Reserved for diagnostics — ambiguous across branches, never used on
// the resume hot path (spec §9.1).
func (s *StateStore) GetLatest(ctx context.Context, conversationID string) (*State, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT conversation_id, parent_message_id, status, COALESCE(paused_message_id::text,''), lead_plan, specialist_states, shared_context, created_at, updated_at
		FROM orchestration_states WHERE conversation_id = $1
		ORDER BY updated_at DESC LIMIT 1`, conversationID)
	return scanState(row)
}

// FindPaused returns the state waiting on a reply to parentMessageId,
// i.e. status=PAUSED and pausedMessageId=parentMessageId. This is the
// only lookup used for resume routing (spec §9.1).
func (s *StateStore) FindPaused(ctx context.Context, conversationID, parentMessageID string) (*State, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT conversation_id, parent_message_id, status, COALESCE(paused_message_id::text,''), lead_plan, specialist_states, shared_context, created_at, updated_at
		FROM orchestration_states
		WHERE conversation_id = $1 AND status = 'PAUSED' AND paused_message_id = $2`,
		conversationID, parentMessageID)
	return scanState(row)
}

// Clear deletes the state for a specific turn, or every state for the
// conversation when parentMessageID is empty.
func (s *StateStore) Clear(ctx context.Context, conversationID, parentMessageID string) error {
	var err error
	if parentMessageID == "" {
		_, err = s.pool.Exec(ctx, `DELETE FROM orchestration_states WHERE conversation_id = $1`, conversationID)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM orchestration_states WHERE conversation_id = $1 AND parent_message_id = $2`, conversationID, parentMessageID)
	}
	if err != nil {
		return fmt.Errorf("failed to clear orchestration state: %w", err)
	}
	return nil
}

// PurgeCompletedBefore deletes terminal-status (COMPLETED or FAILED)
// states last updated before cutoff, so a retention job can reclaim
// the rows a long-running deployment accumulates without touching
// anything still reachable by FindPaused/GetLatest.
func (s *StateStore) PurgeCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM orchestration_states
		WHERE status IN ('COMPLETED', 'FAILED') AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed orchestration states: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(r rowScanner) (*State, error) {
	state := &State{}
	var status string
	var leadPlanJSON, specialistStatesJSON, sharedContextJSON []byte

	if err := r.Scan(&state.ConversationID, &state.ParentMessageID, &status, &state.PausedMessageID,
		&leadPlanJSON, &specialistStatesJSON, &sharedContextJSON, &state.CreatedAt, &state.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan orchestration state: %w", err)
	}
	state.Status = Status(status)

	if len(leadPlanJSON) > 0 {
		var plan LeadPlan
		if err := json.Unmarshal(leadPlanJSON, &plan); err == nil {
			state.LeadPlan = &plan
		}
	}
	if len(specialistStatesJSON) > 0 {
		_ = json.Unmarshal(specialistStatesJSON, &state.SpecialistStates)
	}
	if len(sharedContextJSON) > 0 {
		_ = json.Unmarshal(sharedContextJSON, &state.SharedContext)
	}

	return state, nil
}
