package kb

import (
	"regexp"
	"strings"
)

var nonSlugChar = regexp.MustCompile(`[^a-z0-9_-]`)

// StableDedupeKey computes the stable dedupe key for an artifact per
// spec §4.1:
//
//	stableId = identifier.trim()
//	           || normalize(title)
//	           || "default-artifact"
//	dedupeKey = conversationId + ":" + stableId
func StableDedupeKey(conversationID, identifier, title string) string {
	stableID := strings.TrimSpace(identifier)
	if stableID == "" {
		stableID = normalizeTitle(title)
	}
	if stableID == "" {
		stableID = "default-artifact"
	}
	return conversationID + ":" + stableID
}

func normalizeTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "_")
	s = nonSlugChar.ReplaceAllString(s, "")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
