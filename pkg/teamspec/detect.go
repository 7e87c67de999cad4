package teamspec

import "strings"

// teamRelatedMarkers are the literal substrings that identify a
// message as part of a team specification, per spec §4.5.
var teamRelatedMarkers = []string{
	"# SUPERHUMAN TEAM:",
	"## SUPERHUMAN SPECIFICATIONS",
	"SUPERHUMAN TEAM:",
	"## TEAM COMPOSITION",
	"### Team Member",
	"| Tier | Role",
	"Tier\t+Role",
}

// IsTeamRelated reports whether text looks like part of a team
// specification: at least 100 characters and containing one of the
// known section markers.
func IsTeamRelated(text string) bool {
	if len(text) < 100 {
		return false
	}
	for _, marker := range teamRelatedMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

var honorifics = []string{"Dr.", "Mr.", "Ms.", "Mrs.", "Prof."}

// genericSectionHeaders are substrings (case-insensitive) that
// disqualify a candidate string from being a person's name — these
// are section-header phrasing the spec's source material commonly
// emits, not names.
var genericSectionHeaders = []string{
	"professional foundation",
	"expertise architecture",
	"operational parameters",
	"excellence framework",
	"quality assurance",
	"project integration",
	"team composition",
	"behavioral science",
	"domain specialist",
	"collaboration protocol",
	"success metrics",
	"deliverables",
}

// LooksLikePersonName applies the spec's name heuristic: strip a
// leading honorific, require at least two tokens each at least two
// characters long, the first token capitalized, and none of the
// generic section-header substrings present.
func LooksLikePersonName(candidate string) bool {
	s := strings.TrimSpace(candidate)
	for _, h := range honorifics {
		if strings.HasPrefix(s, h) {
			s = strings.TrimSpace(s[len(h):])
			break
		}
	}

	lower := strings.ToLower(s)
	for _, header := range genericSectionHeaders {
		if strings.Contains(lower, header) {
			return false
		}
	}

	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return false
	}
	for _, t := range tokens {
		if len(t) < 2 {
			return false
		}
	}

	first := []rune(tokens[0])[0]
	return first >= 'A' && first <= 'Z'
}
