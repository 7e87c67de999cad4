package chat

import (
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

func toOrchestrationAgent(r convstore.TeamAgentRecord) orchestration.TeamAgent {
	return orchestration.TeamAgent{
		AgentID:         r.AgentID,
		Name:            r.Name,
		Role:            r.Role,
		Tier:            r.Tier,
		Expertise:       r.Expertise,
		Instructions:    r.Instructions,
		BehavioralLevel: r.BehavioralLevel,
		Provider:        r.Provider,
		Model:           r.Model,
		Position:        r.Position,
	}
}

func toRecord(conversationID string, a orchestration.TeamAgent) convstore.TeamAgentRecord {
	return convstore.TeamAgentRecord{
		AgentID:         a.AgentID,
		ConversationID:  conversationID,
		Name:            a.Name,
		Role:            a.Role,
		Tier:            a.Tier,
		Expertise:       a.Expertise,
		Instructions:    a.Instructions,
		BehavioralLevel: a.BehavioralLevel,
		Provider:        a.Provider,
		Model:           a.Model,
		Position:        a.Position,
	}
}

// splitRoster partitions a conversation's team roster into the Lead
// (tier 3), Specialists (tier 4, in declared order), and optional QA
// (tier 5) agents the orchestrator expects (spec §3's "exactly one
// tier-3, zero or more tier-4/5" invariant).
func splitRoster(agents []convstore.TeamAgentRecord) (lead orchestration.TeamAgent, specialists []orchestration.TeamAgent, qa *orchestration.TeamAgent) {
	for _, r := range agents {
		a := toOrchestrationAgent(r)
		switch r.Tier {
		case 3:
			lead = a
		case 4:
			specialists = append(specialists, a)
		case 5:
			qaCopy := a
			qa = &qaCopy
		}
	}
	return lead, specialists, qa
}

// effectiveObjective implements spec §4.7 step 2's rule: a short
// follow-up ("tell me more") should re-run against the team's
// standing objective rather than be treated as the whole ask.
func effectiveObjective(userText, storedObjective string) string {
	if len(userText) < 50 && storedObjective != "" {
		return storedObjective
	}
	return userText
}

// buildHistory converts a conversation's persisted messages into the
// provider's ConversationMessage shape, resolving each message's text
// through convstore.ExtractText regardless of which shape it was
// stored in.
func buildHistory(messages []convstore.Message) []provider.ConversationMessage {
	history := make([]provider.ConversationMessage, 0, len(messages))
	for _, m := range messages {
		role := provider.RoleAssistant
		if m.IsCreatedByUser {
			role = provider.RoleUser
		}
		history = append(history, provider.ConversationMessage{
			Role:    role,
			Content: []provider.ContentBlock{provider.TextBlock(convstore.ExtractText(m))},
		})
	}
	return history
}
