package teamspec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// slug lowercases s, replaces runs of non-alphanumeric characters with
// "_", and caps the result at 30 characters (spec §4.5's agentId
// recipe).
func slug(s string) string {
	out := nonAlnum.ReplaceAllString(strings.ToLower(s), "_")
	out = strings.Trim(out, "_")
	if len(out) > 30 {
		out = out[:30]
	}
	return out
}

// RoleDefaults supplies the provider/model to assign per tier when the
// extracted member doesn't declare its own (it never does — the spec
// schema has no provider/model fields, so this is always the source).
type RoleDefaults struct {
	LeadProvider, LeadModel             string
	SpecialistProvider, SpecialistModel string
	QAProvider, QAModel                 string
}

func (d RoleDefaults) forTier(tier int) (provider, model string) {
	switch tier {
	case 3:
		return d.LeadProvider, d.LeadModel
	case 5:
		return d.QAProvider, d.QAModel
	default:
		return d.SpecialistProvider, d.SpecialistModel
	}
}

// ToTeamAgents converts an ExtractedTeam into orchestration.TeamAgent
// records, assigning stable agentIds of the form
// "team_<conversationId>_<slug(role|name)>_<timestampUnixNano>_<index>".
func ToTeamAgents(conversationID string, team *ExtractedTeam, defaults RoleDefaults, timestampUnixNano int64) []orchestration.TeamAgent {
	agents := make([]orchestration.TeamAgent, len(team.Members))
	for i, m := range team.Members {
		identifier := m.Role
		if identifier == "" {
			identifier = m.Name
		}
		agentID := fmt.Sprintf("team_%s_%s_%d_%d", conversationID, slug(identifier), timestampUnixNano, i)

		providerName, model := defaults.forTier(m.Tier)

		agents[i] = orchestration.TeamAgent{
			AgentID:         agentID,
			Name:            m.Name,
			Role:            m.Role,
			Tier:            m.Tier,
			Expertise:       m.Expertise,
			Instructions:    m.Instructions,
			BehavioralLevel: m.BehavioralLevel,
			Provider:        providerName,
			Model:           model,
			Position:        i,
		}
	}
	return agents
}
