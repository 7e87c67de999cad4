// Package orchestration implements the team orchestration pipeline
// (spec §4.6, C6) and its persisted pause/resume state (spec §4.2,
// C2): PLAN -> SPECIALISTS -> SYNTHESIS -> [QA_GATE] -> DONE, with a
// PAUSED -> QA_RESUME -> DONE branch driven by a follow-up user
// message.
package orchestration

import "time"

// Status is the lifecycle state of a persisted OrchestrationState.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusPaused     Status = "PAUSED"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// SpecialistStatus is the per-specialist progress marker held inside
// an OrchestrationState.
type SpecialistStatus string

const (
	SpecialistPending   SpecialistStatus = "PENDING"
	SpecialistWorking   SpecialistStatus = "WORKING"
	SpecialistCompleted SpecialistStatus = "COMPLETED"
	SpecialistPaused    SpecialistStatus = "PAUSED"
)

// TeamAgent is a member of a persisted team specification (spec §3).
type TeamAgent struct {
	AgentID         string
	Name            string
	Role            string
	Tier            int // 3 (Lead), 4 (Specialist), 5 (QA)
	Expertise       string
	Instructions    string
	BehavioralLevel string
	Provider        string
	Model           string
	Position        int
}

// SpecialistState tracks one specialist's progress within a turn.
type SpecialistState struct {
	AgentName         string           `json:"agentName"`
	Status            SpecialistStatus `json:"status"`
	Messages          []string         `json:"messages,omitempty"`
	CurrentOutput     string           `json:"currentOutput,omitempty"`
	Thinking          string           `json:"thinking,omitempty"`
	InterruptQuestion string           `json:"interruptQuestion,omitempty"`
	AgentDefinition   *TeamAgent       `json:"agentDefinition,omitempty"`
}

// LeadPlan is the Lead's PLAN-phase output (spec §4.6).
type LeadPlan struct {
	Analysis            string         `json:"analysis"`
	SelectedSpecialists []int          `json:"selectedSpecialists"`
	Assignments         map[string]string `json:"assignments"`
	DeliverableOutline  string         `json:"deliverableOutline"`
}

// State is the persisted orchestration record, keyed by
// (conversationId, parentMessageId).
type State struct {
	ConversationID   string
	ParentMessageID  string
	Status           Status
	PausedMessageID  string
	LeadPlan         *LeadPlan
	SpecialistStates []SpecialistState
	SharedContext    map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SelectedAgent identifies a team member chosen for a turn's result summary.
type SelectedAgent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// SpecialistResponse is one specialist's completed contribution.
type SpecialistResponse struct {
	AgentName string `json:"agentName"`
	AgentRole string `json:"agentRole"`
	Response  string `json:"response"`
}

// Result is the outcome of running a turn through the orchestrator
// (spec §4.6's "Result shape").
type Result struct {
	Success           bool                  `json:"success"`
	Responses         []SpecialistResponse  `json:"responses"`
	FormattedResponse string                `json:"formattedResponse"`
	SelectedAgents    []SelectedAgent       `json:"selectedAgents"`
	WorkPlan          *LeadPlan             `json:"workPlan,omitempty"`
	WaitingForInput   bool                  `json:"waitingForInput,omitempty"`
	QAApproved        bool                  `json:"qaApproved,omitempty"`

	// Question is the QA agent's raised question text when
	// WaitingForInput is true (spec's "Q emits a formattedQuestion").
	Question string `json:"question,omitempty"`
}

// EventKind discriminates the variants of OrchestrationEvent, per
// spec §9's design note ("expose a typed event channel rather than
// five separate closures").
type EventKind string

const (
	EventThinking      EventKind = "thinking"
	EventAgentStart    EventKind = "agent_start"
	EventAgentComplete EventKind = "agent_complete"
	EventStream        EventKind = "stream"
	EventDone          EventKind = "done"
)

// OrchestrationEvent is one item on the channel Orchestrator.Run
// returns. Only the fields relevant to Kind are populated.
type OrchestrationEvent struct {
	Kind EventKind

	// EventThinking
	ThinkingAgent  string
	ThinkingAction string
	ThinkingText   string

	// EventAgentStart / EventAgentComplete
	Agent         *TeamAgent
	AgentResponse string

	// EventStream: full text accumulated so far in the current phase
	// (matches spec §4.9's accumulated-not-delta SSE contract).
	StreamAccumulated string

	// EventDone
	Result *Result
	Err    error
}
