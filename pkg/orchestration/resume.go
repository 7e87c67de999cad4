package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// ResumeInput describes a follow-up user message replying to a
// pending QA question (spec §4.6's QA_RESUME transition).
type ResumeInput struct {
	ConversationID string
	QA             TeamAgent
	UserReply      string
}

// Resume feeds a user's reply back to the paused QA agent, clears the
// state, and returns a channel terminated by one EventDone carrying
// the final Result with the resolution text. Resume does not persist
// the resolution as a message; the caller does.
func (o *Orchestrator) Resume(ctx context.Context, state *State, in ResumeInput) <-chan OrchestrationEvent {
	events := make(chan OrchestrationEvent, 4)
	go func() {
		defer close(events)
		result, err := o.resume(ctx, state, in, events)
		events <- OrchestrationEvent{Kind: EventDone, Result: result, Err: err}
	}()
	return events
}

func (o *Orchestrator) resume(ctx context.Context, state *State, in ResumeInput, events chan<- OrchestrationEvent) (*Result, error) {
	emit := func(e OrchestrationEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	question, _ := state.SharedContext["qaQuestion"].(string)
	system := fmt.Sprintf("You are %s, a QA reviewer. You previously asked: %q. "+
		"The user has replied. Respond only with JSON: {\"approved\":bool,\"resolution\":string}.", in.QA.Name, question)

	resp, err := o.Chat.Complete(ctx, provider.CompleteRequest{
		Model:  in.QA.Model,
		System: system,
		Messages: []provider.ConversationMessage{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock(in.UserReply)}},
		},
	})

	approved := true
	resolution := in.UserReply
	if err != nil {
		slog.Warn("QA resume provider call failed, defaulting to approved", "error", err)
	} else {
		text := firstText(resp.Content)
		jsonBlock := extractJSONObject(text)
		var decision struct {
			Approved   bool   `json:"approved"`
			Resolution string `json:"resolution"`
		}
		if jsonBlock != "" {
			if unmarshalErr := json.Unmarshal([]byte(jsonBlock), &decision); unmarshalErr == nil {
				approved = decision.Approved
				if decision.Resolution != "" {
					resolution = decision.Resolution
				}
			}
		}
	}

	emit(OrchestrationEvent{Kind: EventStream, StreamAccumulated: resolution})

	if err := o.States.Clear(ctx, state.ConversationID, state.ParentMessageID); err != nil {
		slog.Error("failed to clear resumed orchestration state", "error", err)
	}

	return &Result{
		Success:           true,
		FormattedResponse: resolution,
		QAApproved:        approved,
	}, nil
}
