package sseevents

import "github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"

// FromOrchestrationEvent translates one orchestration.OrchestrationEvent
// into the zero or more wire frames it produces. EventDone is not
// translated here — the caller builds the turn's Final frame itself,
// since that needs fields (title, requestMessage, persisted
// conversation) the orchestrator has no knowledge of.
func FromOrchestrationEvent(e orchestration.OrchestrationEvent, messageID, conversationID string) (progress *Progress, chunk *TextChunk) {
	switch e.Kind {
	case orchestration.EventThinking:
		return &Progress{
			Event: ProgressThinking,
			Data: map[string]string{
				"agent":  e.ThinkingAgent,
				"action": e.ThinkingAction,
				"text":   e.ThinkingText,
			},
		}, nil

	case orchestration.EventAgentStart:
		data := map[string]any{}
		if e.Agent != nil {
			data["agentId"] = e.Agent.AgentID
			data["name"] = e.Agent.Name
			data["role"] = e.Agent.Role
		}
		return &Progress{Event: ProgressAgentStart, Data: data}, nil

	case orchestration.EventAgentComplete:
		data := map[string]any{"response": e.AgentResponse}
		if e.Agent != nil {
			data["agentId"] = e.Agent.AgentID
			data["name"] = e.Agent.Name
			data["role"] = e.Agent.Role
		}
		return &Progress{Event: ProgressAgentComplete, Data: data}, nil

	case orchestration.EventStream:
		c := NewTextChunk(e.StreamAccumulated, 0, messageID, conversationID)
		return nil, &c

	default:
		return nil, nil
	}
}
