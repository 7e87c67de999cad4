// Package artifact parses ":::artifact{...}" blocks out of assistant
// text and computes the stable dedupe key used to upsert them into the
// knowledge base.
package artifact

import (
	"regexp"
	"strings"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
)

// Artifact is one parsed ":::artifact{...}" block.
type Artifact struct {
	FullText   string
	Identifier string
	Type       string
	Title      string
	Content    string
}

// DedupeKey computes the stable dedupe key for this artifact within a
// conversation (spec §4.1).
func (a Artifact) DedupeKey(conversationID string) string {
	return kb.StableDedupeKey(conversationID, a.Identifier, a.Title)
}

var (
	openTag  = regexp.MustCompile(`(?m)^:::artifact(\{[^\n}]*\})?\s*$`)
	closeTag = regexp.MustCompile(`(?m)^:::\s*$`)
	fence    = regexp.MustCompile("(?s)```[^\n]*\n(.*?)\n```")
	attrPair = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
)

// Extract scans text for ":::artifact{...}" ... ":::" blocks, parses
// the opening tag's key="value" attributes, and pulls the content of
// the first fenced code block found inside each. Blocks with no
// fenced code block inside are skipped (nothing to persist).
func Extract(text string) []Artifact {
	var out []Artifact

	opens := openTag.FindAllStringSubmatchIndex(text, -1)
	for _, m := range opens {
		blockStart := m[0]
		tagEnd := m[1]

		closeLoc := closeTag.FindStringIndex(text[tagEnd:])
		if closeLoc == nil {
			continue // unterminated block, ignore
		}
		blockEnd := tagEnd + closeLoc[1]
		body := text[tagEnd : tagEnd+closeLoc[0]]

		fenceMatch := fence.FindStringSubmatch(body)
		if fenceMatch == nil {
			continue
		}

		var attrs string
		if m[2] >= 0 {
			attrs = text[m[2]:m[3]]
		}

		out = append(out, Artifact{
			FullText:   text[blockStart:blockEnd],
			Identifier: attrValue(attrs, "identifier"),
			Type:       attrValue(attrs, "type"),
			Title:      attrValue(attrs, "title"),
			Content:    strings.TrimSpace(fenceMatch[1]),
		})
	}

	return out
}

func attrValue(attrs, key string) string {
	for _, m := range attrPair.FindAllStringSubmatch(attrs, -1) {
		if m[1] == key {
			return m[2]
		}
	}
	return ""
}
