package chat

import (
	"context"
	"fmt"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
)

// runTeam dispatches a turn to the team orchestrator (C6): either a
// QA_RESUME when this turn replies to a pending pause, or a fresh PLAN
// -> SPECIALISTS -> SYNTHESIS -> [QA_GATE] run.
func (d *Dispatcher) runTeam(ctx context.Context, req TurnRequest, conv *convstore.Conversation, userMsg *convstore.Message, events chan<- Event) {
	emit := func(e Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		emit(Event{Kind: EventFinal, Final: &FinalResult{Success: false, Conversation: conv, RequestMessage: userMsg, Error: err.Error()}})
	}

	paused, err := d.Orchestrator.States.FindPaused(ctx, req.ConversationID, req.ParentMessageID)
	if err != nil {
		fail(err)
		return
	}

	lead, specialists, qa := splitRoster(conv.TeamAgents)

	if paused != nil {
		if qa == nil {
			fail(fmt.Errorf("%w: paused orchestration state but no QA agent on roster", errs.ErrFatalBug))
			return
		}
		d.consumeOrchestration(ctx, d.Orchestrator.Resume(ctx, paused, orchestration.ResumeInput{
			ConversationID: req.ConversationID,
			QA:             *qa,
			UserReply:      req.UserText,
		}), req, conv, userMsg, events)
		return
	}

	objective := effectiveObjective(req.UserText, conv.TeamObjective)
	d.consumeOrchestration(ctx, d.Orchestrator.Run(ctx, orchestration.TurnInput{
		ConversationID:  req.ConversationID,
		ParentMessageID: req.ParentMessageID,
		UserText:        req.UserText,
		Objective:       objective,
		Lead:            lead,
		Specialists:     specialists,
		QA:              qa,
	}), req, conv, userMsg, events)
}

// consumeOrchestration translates an orchestration.OrchestrationEvent
// channel into this package's Event shape, persists the turn's
// response message once EventDone arrives, and emits the Final event.
func (d *Dispatcher) consumeOrchestration(ctx context.Context, ch <-chan orchestration.OrchestrationEvent, req TurnRequest, conv *convstore.Conversation, userMsg *convstore.Message, events chan<- Event) {
	emit := func(e Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		emit(Event{Kind: EventFinal, Final: &FinalResult{Success: false, Conversation: conv, RequestMessage: userMsg, Error: err.Error()}})
	}

	for oe := range ch {
		switch oe.Kind {
		case orchestration.EventThinking:
			emit(Event{Kind: EventThinking, ThinkingAgent: oe.ThinkingAgent, ThinkingAction: oe.ThinkingAction, ThinkingText: oe.ThinkingText})
		case orchestration.EventAgentStart:
			emit(Event{Kind: EventAgentStart, Agent: oe.Agent})
		case orchestration.EventAgentComplete:
			emit(Event{Kind: EventAgentComplete, Agent: oe.Agent, AgentResponse: oe.AgentResponse})
		case orchestration.EventStream:
			emit(Event{Kind: EventStream, StreamAccumulated: oe.StreamAccumulated})
		case orchestration.EventDone:
			if oe.Err != nil {
				fail(oe.Err)
				return
			}
			d.finishTeamTurn(ctx, req, conv, userMsg, oe.Result, emit, fail)
		}
	}
}

func (d *Dispatcher) finishTeamTurn(ctx context.Context, req TurnRequest, conv *convstore.Conversation, userMsg *convstore.Message, result *orchestration.Result, emit func(Event), fail func(error)) {
	if result == nil {
		fail(fmt.Errorf("%w: orchestrator returned a nil result on EventDone", errs.ErrFatalBug))
		return
	}

	if !result.Success {
		emit(Event{Kind: EventFinal, Final: &FinalResult{Success: false, Conversation: conv, RequestMessage: userMsg}})
		return
	}

	if result.WaitingForInput {
		lead, _, qa := splitRoster(conv.TeamAgents)
		qaName, qaRole := lead.Name, lead.Role
		if qa != nil {
			qaName, qaRole = qa.Name, qa.Role
		}
		respMsg, err := d.Messages.Save(ctx, convstore.Message{
			ConversationID:  req.ConversationID,
			ParentMessageID: userMsg.ID,
			IsCreatedByUser: false,
			Text:            result.Question,
			Metadata: map[string]any{
				"phase":           "qa_gate_pending",
				"waitingForInput": true,
				"qaAgentName":     qaName,
				"qaAgentRole":     qaRole,
			},
		})
		if err != nil {
			fail(err)
			return
		}
		emit(Event{Kind: EventFinal, Final: &FinalResult{
			Success: true, Conversation: conv, RequestMessage: userMsg, ResponseMessage: respMsg,
			QAWaitingForApproval: true,
		}})
		return
	}

	metadata := map[string]any{}
	if _, _, qa := splitRoster(conv.TeamAgents); qa != nil {
		metadata = map[string]any{"phase": "qa_gate_complete", "qaApproved": result.QAApproved}
	}

	respMsg, err := d.Messages.Save(ctx, convstore.Message{
		ConversationID:  req.ConversationID,
		ParentMessageID: userMsg.ID,
		IsCreatedByUser: false,
		Text:            result.FormattedResponse,
		Metadata:        metadata,
	})
	if err != nil {
		fail(err)
		return
	}
	d.persistArtifacts(ctx, req.ConversationID, respMsg.ID, result.FormattedResponse)

	emit(Event{Kind: EventFinal, Final: &FinalResult{
		Success: true, Conversation: conv, RequestMessage: userMsg, ResponseMessage: respMsg,
	}})
}
