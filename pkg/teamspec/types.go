package teamspec

// Member is one team member as extracted from a specification
// conversation, before conversion into an orchestration.TeamAgent.
type Member struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	Tier            int    `json:"tier"` // 3 (Lead), 4 (Specialist), 5 (QA)
	Expertise       string `json:"expertise"`
	BehavioralLevel string `json:"behavioralLevel"`
	Instructions    string `json:"instructions"`
}

// ExtractedTeam is the structured result of the extraction pipeline.
type ExtractedTeam struct {
	ProjectName string   `json:"projectName"`
	Complexity  string   `json:"complexity"` // LOW, MODERATE, HIGH, VERY_HIGH
	TeamSize    int      `json:"teamSize"`
	Members     []Member `json:"members"`
}

// extractionSchema is the JSON schema handed to the structured
// provider for the LLM extraction path (spec §4.5 step 2).
const extractionSchema = `{
	"type": "object",
	"properties": {
		"projectName": {"type": "string"},
		"complexity": {"type": "string", "enum": ["LOW","MODERATE","HIGH","VERY_HIGH"]},
		"teamSize": {"type": "integer"},
		"members": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"role": {"type": "string"},
					"tier": {"type": "integer", "enum": [3,4,5]},
					"expertise": {"type": "string"},
					"behavioralLevel": {"type": "string", "enum": ["NONE","ENTRY-MODERATE","MODERATE-EXPERT","EXPERT"]},
					"instructions": {"type": "string"}
				},
				"required": ["name","role","tier"]
			}
		}
	},
	"required": ["members"]
}`
