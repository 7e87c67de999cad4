package teamspec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// CollectRelevant filters texts down to the team-related ones (time
// order preserved), joins them, and truncates to the last maxChars
// characters when the combined text is longer (spec §4.5 step 1).
func CollectRelevant(texts []string, maxChars int) string {
	var relevant []string
	for _, t := range texts {
		if IsTeamRelated(t) {
			relevant = append(relevant, t)
		}
	}
	combined := strings.Join(relevant, "\n\n")
	if maxChars > 0 && len(combined) > maxChars {
		combined = combined[len(combined)-maxChars:]
	}
	return combined
}

// Extract runs the LLM-first, regex-fallback extraction pipeline
// (spec §4.5 steps 2-4) against the relevant source text, then
// enhances short instructions from the original source blocks.
func Extract(ctx context.Context, sp provider.StructuredChatProvider, model string, relevant string, sourceMessages []string) (*ExtractedTeam, error) {
	team, err := extractViaLLM(ctx, sp, model, relevant)
	if err != nil || len(team.Members) == 0 {
		team, err = extractViaRegex(sourceMessages)
	}
	if err != nil {
		return nil, err
	}
	if len(team.Members) == 0 {
		return nil, errs.ErrTeamExtractionFailed
	}

	enhanceInstructions(team, sourceMessages)
	return team, nil
}

func extractViaLLM(ctx context.Context, sp provider.StructuredChatProvider, model string, relevant string) (*ExtractedTeam, error) {
	if sp == nil || relevant == "" {
		return nil, fmt.Errorf("no structured provider or no relevant text")
	}

	raw, err := sp.Parse(ctx, provider.ParseRequest{
		Model:  model,
		Schema: extractionSchema,
		System: "Extract the team specification described in the conversation below into the given schema.",
		Messages: []provider.ConversationMessage{
			{Role: provider.RoleUser, Content: []provider.ContentBlock{provider.TextBlock(relevant)}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("structured extraction call failed: %w", err)
	}

	var team ExtractedTeam
	if err := json.Unmarshal([]byte(raw), &team); err == nil {
		return &team, nil
	}

	repaired := repairJSON(raw)
	if err := json.Unmarshal([]byte(repaired), &team); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON after repair: %w", err)
	}
	return &team, nil
}

// repairJSON strips markdown code fences and trims anything before the
// first '{' or after the matching last '}', the two repairs spec §4.5
// names explicitly.
func repairJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

// extractViaRegex is the fallback path: table extraction plus
// specification-section extraction with the name heuristic, merging
// members across messages by preferring the latest non-empty values
// and the longest instructions block (spec §4.5 step 4).
func extractViaRegex(sourceMessages []string) (*ExtractedTeam, error) {
	byName := map[string]*Member{}
	var order []string

	for _, msg := range sourceMessages {
		for name, block := range specSections(msg) {
			if !LooksLikePersonName(name) {
				continue
			}
			existing, ok := byName[name]
			if !ok {
				m := &Member{Name: name, Instructions: block}
				byName[name] = m
				order = append(order, name)
				continue
			}
			if len(block) > len(existing.Instructions) {
				existing.Instructions = block
			}
		}

		for _, row := range tableRows(msg) {
			existing, ok := byName[row.Name]
			if !ok {
				m := &Member{Name: row.Name, Role: row.Role, Tier: row.Tier}
				byName[row.Name] = m
				order = append(order, row.Name)
				continue
			}
			if row.Role != "" {
				existing.Role = row.Role
			}
			if row.Tier != 0 {
				existing.Tier = row.Tier
			}
		}
	}

	members := make([]Member, 0, len(order))
	for _, name := range order {
		members = append(members, *byName[name])
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Tier < members[j].Tier })

	return &ExtractedTeam{Members: members, TeamSize: len(members)}, nil
}

// specSections finds "### <Name>" blocks and returns the text up to
// the next "### " or "## " heading.
func specSections(text string) map[string]string {
	out := map[string]string{}
	lines := strings.Split(text, "\n")

	var currentName string
	var currentLines []string
	flush := func() {
		if currentName != "" {
			out[currentName] = strings.TrimSpace(strings.Join(currentLines, "\n"))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "### ") {
			flush()
			currentName = strings.TrimSpace(strings.TrimPrefix(trimmed, "### "))
			currentLines = nil
			continue
		}
		if strings.HasPrefix(trimmed, "## ") {
			flush()
			currentName = ""
			currentLines = nil
			continue
		}
		if currentName != "" {
			currentLines = append(currentLines, line)
		}
	}
	flush()

	return out
}

type tableRow struct {
	Name string
	Role string
	Tier int
}

// tableRows extracts "| Name | Role | Tier |"-style markdown table
// rows. Column order is inferred from the header row.
func tableRows(text string) []tableRow {
	var rows []tableRow
	lines := strings.Split(text, "\n")

	nameCol, roleCol, tierCol := -1, -1, -1
	inTable := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			inTable = false
			continue
		}
		cells := splitTableRow(trimmed)

		if !inTable {
			for i, c := range cells {
				switch strings.ToLower(strings.TrimSpace(c)) {
				case "name":
					nameCol = i
				case "role":
					roleCol = i
				case "tier":
					tierCol = i
				}
			}
			inTable = nameCol >= 0
			continue
		}

		if strings.Trim(trimmed, "|-: ") == "" {
			continue // separator row
		}
		if nameCol >= len(cells) {
			continue
		}

		row := tableRow{Name: strings.TrimSpace(cells[nameCol])}
		if roleCol >= 0 && roleCol < len(cells) {
			row.Role = strings.TrimSpace(cells[roleCol])
		}
		if tierCol >= 0 && tierCol < len(cells) {
			fmt.Sscanf(strings.TrimSpace(cells[tierCol]), "%d", &row.Tier)
		}
		if row.Name != "" {
			rows = append(rows, row)
		}
	}

	return rows
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// enhanceInstructions replaces any member's short (<500 char)
// instructions with a matching "### Name" block from the source
// messages, when that block is longer (spec §4.5 step 3).
func enhanceInstructions(team *ExtractedTeam, sourceMessages []string) {
	for i := range team.Members {
		m := &team.Members[i]
		if len(m.Instructions) >= 500 {
			continue
		}
		for _, msg := range sourceMessages {
			sections := specSections(msg)
			if block, ok := sections[m.Name]; ok && len(block) > len(m.Instructions) {
				m.Instructions = block
			}
		}
	}
}
