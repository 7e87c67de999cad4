package config

import "time"

// defaultConfig returns the built-in configuration applied before any
// user-provided overrides are merged on top via mergo.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			GinMode: "release",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Agents: AgentDefaults{
			LeadProvider:       "anthropic",
			LeadModel:          "claude-lead-default",
			SpecialistProvider: "anthropic",
			SpecialistModel:    "claude-specialist-default",
			QAProvider:         "anthropic",
			QAModel:            "claude-qa-default",
			ExtractorProvider:  "anthropic",
			ExtractorModel:     "claude-extractor-default",
			CoordinatorAgentID:  "dr-sterling",
			CoordinatorName:     "Dr. Sterling",
			CoordinatorProvider: "anthropic",
			CoordinatorModel:    "claude-coordinator-default",
		},
		KB: KBConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			DefaultTopK:  5,
			MaxTopK:      10,
		},
		Team: TeamConfig{
			ActivationPattern:      `(?i)^dr\.?\s*sterling,?\s*this\s+is\s+(?P<name>[^.!?\n]*)`,
			FileTriggeredRoleCap:   5,
			FileAnalysisMaxChars:   50000,
			ExtractionMaxChars:     100000,
			ConfirmationGraceDelay: 5 * time.Second,
			BackgroundTimeout:      2 * time.Minute,
		},
		Limits: LimitsConfig{
			MaxToolLoopTurns: 10,
		},
		Retention: RetentionConfig{
			StateRetention: 30 * 24 * time.Hour,
			Interval:       time.Hour,
		},
	}
}
