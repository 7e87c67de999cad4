// Package teamspec detects team-building conversations, extracts a
// team specification (LLM-first, regex fallback), and converts it into
// TeamAgent records (spec §4.5, C5).
package teamspec

import (
	"regexp"
	"strings"
)

// confirmedMarker is the literal token the coordinator's output
// carries when a team specification has been approved.
const confirmedMarker = "[TEAM_CONFIRMED]"

// ActivationMatch is the result of a successful activation-phrase match.
type ActivationMatch struct {
	UserName string
}

// DetectActivation reports whether text opens with the coordinator
// activation phrase ("Dr. Sterling, this is <Name>"), extracting Name
// up to the first '.', '!', '?' or newline.
func DetectActivation(pattern *regexp.Regexp, text string) (*ActivationMatch, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}

	idx := pattern.SubexpIndex("name")
	name := ""
	if idx >= 0 && idx < len(match) {
		name = strings.TrimSpace(match[idx])
	}
	if name == "" {
		// spec's named boundary behavior: "Dr. Sterling, this is " with
		// no name defaults to "User".
		name = "User"
	}
	return &ActivationMatch{UserName: name}, true
}

// HasConfirmationMarker reports whether text carries the literal
// [TEAM_CONFIRMED] token.
func HasConfirmationMarker(text string) bool {
	return strings.Contains(text, confirmedMarker)
}

// StripConfirmationMarker removes the [TEAM_CONFIRMED] token from
// user-visible text before persistence.
func StripConfirmationMarker(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, confirmedMarker, ""))
}
