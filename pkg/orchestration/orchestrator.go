package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// TurnInput describes a fresh (non-resume) turn to run through the
// orchestrator.
type TurnInput struct {
	ConversationID  string
	ParentMessageID string
	UserText        string
	Objective       string
	Lead            TeamAgent
	Specialists     []TeamAgent // tier 4, in declared order
	QA              *TeamAgent  // tier 5, optional
}

// Orchestrator runs the PLAN -> SPECIALISTS -> SYNTHESIS -> [QA_GATE]
// -> DONE phase machine (spec §4.6, C6).
type Orchestrator struct {
	States *StateStore
	Chat   provider.ChatProvider
	Stream provider.StreamingChatProvider
}

func NewOrchestrator(states *StateStore, chat provider.ChatProvider, stream provider.StreamingChatProvider) *Orchestrator {
	return &Orchestrator{States: states, Chat: chat, Stream: stream}
}

// Run executes a fresh turn and returns a channel of progress events
// terminated by exactly one EventDone (spec §9's typed-event-channel
// design note). The channel is closed after EventDone is sent.
func (o *Orchestrator) Run(ctx context.Context, in TurnInput) <-chan OrchestrationEvent {
	events := make(chan OrchestrationEvent, 16)
	go func() {
		defer close(events)
		result, err := o.run(ctx, in, events)
		events <- OrchestrationEvent{Kind: EventDone, Result: result, Err: err}
	}()
	return events
}

func (o *Orchestrator) run(ctx context.Context, in TurnInput, events chan<- OrchestrationEvent) (*Result, error) {
	emit := func(e OrchestrationEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	// PLAN
	emit(OrchestrationEvent{Kind: EventThinking, ThinkingAgent: in.Lead.Name, ThinkingAction: "planning", ThinkingText: "Analyzing the request and selecting specialists."})
	plan := o.runPlan(ctx, in)

	selected := selectSpecialists(in.Specialists, plan.SelectedSpecialists)

	// SPECIALISTS (serial, in declared order per spec §4.6)
	var responses []SpecialistResponse
	selectedAgents := []SelectedAgent{{ID: in.Lead.AgentID, Name: in.Lead.Name, Role: in.Lead.Role}}
	for _, specialist := range selected {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		emit(OrchestrationEvent{Kind: EventAgentStart, Agent: &specialist})

		assignment := plan.Assignments[specialist.Name]
		response, err := o.runSpecialist(ctx, in, specialist, assignment)
		if err != nil {
			slog.Warn("specialist call failed, degrading to placeholder", "agent", specialist.Name, "error", err)
			response = fmt.Sprintf("[Unable to generate response: %s]", err.Error())
		}

		responses = append(responses, SpecialistResponse{AgentName: specialist.Name, AgentRole: specialist.Role, Response: response})
		selectedAgents = append(selectedAgents, SelectedAgent{ID: specialist.AgentID, Name: specialist.Name, Role: specialist.Role})
		emit(OrchestrationEvent{Kind: EventAgentComplete, Agent: &specialist, AgentResponse: response})
	}

	// SYNTHESIS
	formatted, err := o.runSynthesis(ctx, in, responses, events, emit)
	if err != nil {
		return &Result{Success: false}, fmt.Errorf("synthesis failed: %w", err)
	}

	result := &Result{
		Success:           true,
		Responses:         responses,
		FormattedResponse: formatted,
		SelectedAgents:    selectedAgents,
		WorkPlan:          plan,
	}

	// QA_GATE
	if in.QA != nil {
		paused, question, err := o.runQAGate(ctx, in, *in.QA, formatted, plan, responses, emit)
		if err != nil {
			return result, fmt.Errorf("QA gate failed: %w", err)
		}
		if paused {
			result.WaitingForInput = true
			result.Question = question
			return result, nil
		}
		result.QAApproved = true
	}

	return result, nil
}

func (o *Orchestrator) runPlan(ctx context.Context, in TurnInput) *LeadPlan {
	system := fmt.Sprintf("You are %s, the lead coordinator for this team. Respond only with a JSON object: "+
		`{"analysis":string,"selectedSpecialists":[int],"assignments":{name:string},"deliverableOutline":string}. `+
		"Specialist indices are 1-based over the specialist list, in order.", in.Lead.Name)
	user := fmt.Sprintf("Objective: %s\n\nUser request: %s", in.Objective, in.UserText)

	resp, err := o.Chat.Complete(ctx, provider.CompleteRequest{
		Model:  in.Lead.Model,
		System: system,
		Messages: []provider.ConversationMessage{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock(user)}},
		},
	})
	if err != nil {
		slog.Warn("PLAN phase provider call failed, selecting all specialists", "error", err)
		return allSpecialistsPlan(0)
	}

	text := firstText(resp.Content)
	plan, err := parseLeadPlan(text)
	if err != nil {
		slog.Warn("PLAN phase produced unparsable JSON, selecting all specialists", "error", err)
		return allSpecialistsPlan(0)
	}
	return plan
}

func allSpecialistsPlan(n int) *LeadPlan {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i + 1
	}
	return &LeadPlan{SelectedSpecialists: indices, Assignments: map[string]string{}}
}

func parseLeadPlan(text string) (*LeadPlan, error) {
	jsonBlock := extractJSONObject(text)
	if jsonBlock == "" {
		return nil, fmt.Errorf("no JSON object found in lead response")
	}
	var plan LeadPlan
	if err := json.Unmarshal([]byte(jsonBlock), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// extractJSONObject returns the first balanced {...} substring, so a
// Lead response wrapped in prose or a markdown fence still parses.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func selectSpecialists(all []TeamAgent, selectedIndices []int) []TeamAgent {
	if len(selectedIndices) == 0 {
		return all
	}
	sort.Ints(selectedIndices)
	var out []TeamAgent
	for _, idx := range selectedIndices {
		if idx >= 1 && idx <= len(all) {
			out = append(out, all[idx-1])
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

func (o *Orchestrator) runSpecialist(ctx context.Context, in TurnInput, specialist TeamAgent, assignment string) (string, error) {
	system := buildSpecialistSystemPrompt(specialist)
	user := fmt.Sprintf("Objective: %s\n\nYour Assignment: %s", in.Objective, assignment)

	resp, err := o.Chat.Complete(ctx, provider.CompleteRequest{
		Model:  specialist.Model,
		System: system,
		Messages: []provider.ConversationMessage{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock(user)}},
		},
	})
	if err != nil {
		return "", err
	}
	return firstText(resp.Content), nil
}

func buildSpecialistSystemPrompt(a TeamAgent) string {
	return fmt.Sprintf("You are %s, a %s.\n\nExpertise: %s\n\nInstructions: %s", a.Name, a.Role, a.Expertise, a.Instructions)
}

func (o *Orchestrator) runSynthesis(ctx context.Context, in TurnInput, responses []SpecialistResponse, events chan<- OrchestrationEvent, emit func(OrchestrationEvent)) (string, error) {
	var sb strings.Builder
	sb.WriteString("Specialist contributions:\n\n")
	for _, r := range responses {
		fmt.Fprintf(&sb, "## %s (%s)\n%s\n\n", r.AgentName, r.AgentRole, r.Response)
	}

	system := fmt.Sprintf("You are %s. Integrate the specialist contributions below into a single cohesive Markdown deliverable for the user.", in.Lead.Name)
	req := provider.CompleteRequest{
		Model:  in.Lead.Model,
		System: system,
		Messages: []provider.ConversationMessage{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock(sb.String())}},
		},
	}

	var accumulated string
	if o.Stream != nil {
		stream, err := o.Stream.Stream(ctx, req)
		if err != nil {
			return "", err
		}
		for chunk := range stream {
			if chunk.TextDelta != "" {
				accumulated += chunk.TextDelta
				emit(OrchestrationEvent{Kind: EventStream, StreamAccumulated: accumulated})
			}
			if chunk.Done && chunk.Final != nil {
				accumulated = firstText(chunk.Final.Content)
			}
		}
	} else {
		resp, err := o.Chat.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		accumulated = firstText(resp.Content)
	}

	footer := synthesisFooter(in.Lead, responses)
	accumulated += footer
	emit(OrchestrationEvent{Kind: EventStream, StreamAccumulated: accumulated})

	return accumulated, nil
}

func synthesisFooter(lead TeamAgent, responses []SpecialistResponse) string {
	names := []string{lead.Name}
	for _, r := range responses {
		names = append(names, r.AgentName)
	}
	return fmt.Sprintf("\n\n---\n\n_**Team:** %s | %s_", strings.Join(names, ", "), time.Now().Format("2006-01-02"))
}

// qaDecision is the structured shape a QA agent responds with.
type qaDecision struct {
	Approved bool   `json:"approved"`
	Question string `json:"question,omitempty"`
}

// runQAGate invokes the QA agent and, if it raises a question, persists
// a PAUSED orchestration state and returns paused=true with the
// question text. A provider error or unparsable response degrades to
// an automatic approval rather than blocking the turn.
func (o *Orchestrator) runQAGate(ctx context.Context, in TurnInput, qa TeamAgent, deliverable string, plan *LeadPlan, responses []SpecialistResponse, emit func(OrchestrationEvent)) (paused bool, question string, err error) {
	system := fmt.Sprintf("You are %s, a QA reviewer. Respond only with JSON: "+
		`{"approved":bool,"question":string}`+" (question empty when approved).", qa.Name)
	user := fmt.Sprintf("Review this deliverable:\n\n%s", deliverable)

	emit(OrchestrationEvent{Kind: EventStream, StreamAccumulated: deliverable + "\n\n---\n\n**Initiating QA Review...**\n\n"})

	resp, callErr := o.Chat.Complete(ctx, provider.CompleteRequest{
		Model:  qa.Model,
		System: system,
		Messages: []provider.ConversationMessage{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock(user)}},
		},
	})
	if callErr != nil {
		slog.Warn("QA gate provider call failed, auto-approving", "error", callErr)
		return false, "", nil
	}

	text := firstText(resp.Content)
	jsonBlock := extractJSONObject(text)
	var decision qaDecision
	if jsonBlock == "" || json.Unmarshal([]byte(jsonBlock), &decision) != nil {
		slog.Warn("QA gate produced unparsable JSON, auto-approving")
		return false, "", nil
	}

	if decision.Approved || decision.Question == "" {
		return false, "", nil
	}

	pausedMessageID := uuid.NewString()
	state := &State{
		ConversationID:  in.ConversationID,
		ParentMessageID: in.ParentMessageID,
		Status:          StatusPaused,
		PausedMessageID: pausedMessageID,
		LeadPlan:        plan,
		SpecialistStates: specialistStatesFrom(responses),
		SharedContext:   map[string]any{"qaAgentName": qa.Name, "qaAgentRole": qa.Role, "qaQuestion": decision.Question},
	}
	if err := o.States.Save(ctx, state); err != nil {
		// Spec §4.6: a failed save during a pause is fatal for the turn
		// to avoid silently losing the question.
		return false, "", fmt.Errorf("failed to persist paused orchestration state: %w", err)
	}

	return true, decision.Question, nil
}

func specialistStatesFrom(responses []SpecialistResponse) []SpecialistState {
	out := make([]SpecialistState, len(responses))
	for i, r := range responses {
		out[i] = SpecialistState{AgentName: r.AgentName, Status: SpecialistCompleted, CurrentOutput: r.Response}
	}
	return out
}

func firstText(content []provider.ContentBlock) string {
	for _, b := range content {
		if b.Type == provider.ContentText {
			return b.Text
		}
	}
	return ""
}
