package sseevents

import "github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/chat"

// FromChatEvent translates one chat.Event into the zero or more wire
// frames it produces, mirroring FromOrchestrationEvent's shape for
// direct-mode turns and turns that pass through the team orchestrator
// alike (chat.Event already normalizes both). EventFinal is not
// translated here — the caller builds the turn's Final frame itself
// from chat.FinalResult, since that needs request-scoped fields (e.g.
// the conversation's title) the dispatcher has no knowledge of.
func FromChatEvent(e chat.Event, messageID, conversationID string) (progress *Progress, chunk *TextChunk) {
	switch e.Kind {
	case chat.EventThinking:
		return &Progress{
			Event: ProgressThinking,
			Data: map[string]string{
				"agent":  e.ThinkingAgent,
				"action": e.ThinkingAction,
				"text":   e.ThinkingText,
			},
		}, nil

	case chat.EventAgentStart:
		data := map[string]any{}
		if e.Agent != nil {
			data["agentId"] = e.Agent.AgentID
			data["name"] = e.Agent.Name
			data["role"] = e.Agent.Role
		}
		return &Progress{Event: ProgressAgentStart, Data: data}, nil

	case chat.EventAgentComplete:
		data := map[string]any{"response": e.AgentResponse}
		if e.Agent != nil {
			data["agentId"] = e.Agent.AgentID
			data["name"] = e.Agent.Name
			data["role"] = e.Agent.Role
		}
		return &Progress{Event: ProgressAgentComplete, Data: data}, nil

	case chat.EventStream:
		c := NewTextChunk(e.StreamAccumulated, 0, messageID, conversationID)
		return nil, &c

	default:
		return nil, nil
	}
}
