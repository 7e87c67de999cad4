// Package config loads YAML + environment configuration for the team
// orchestration service: provider defaults, chunking/retrieval knobs,
// activation detection, and background-job timing.
package config

import "time"

// Config is the fully-resolved, validated configuration for a running
// service instance.
type Config struct {
	configDir string

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Agents   AgentDefaults  `yaml:"agents"`
	KB       KBConfig       `yaml:"kb"`
	Team     TeamConfig     `yaml:"team"`
	Limits    LimitsConfig    `yaml:"limits"`
	Retention RetentionConfig `yaml:"retention"`
}

// ConfigDir returns the directory configuration was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }

// ServerConfig controls the HTTP/SSE listener.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"gin_mode"`
}

// DatabaseConfig controls the pgx connection pool.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AgentDefaults gives default provider/model identifiers per role, used
// when a TeamAgent or the coordinator doesn't specify its own (§6.1).
type AgentDefaults struct {
	LeadProvider       string `yaml:"lead_provider"`
	LeadModel          string `yaml:"lead_model"`
	SpecialistProvider string `yaml:"specialist_provider"`
	SpecialistModel    string `yaml:"specialist_model"`
	QAProvider         string `yaml:"qa_provider"`
	QAModel            string `yaml:"qa_model"`
	ExtractorProvider  string `yaml:"extractor_provider"`
	ExtractorModel     string `yaml:"extractor_model"`

	// CoordinatorAgentID is Dr. Sterling's fixed, seeded identity (§9's
	// "global agent singleton" design note: a configuration record
	// refreshed at startup, not runtime mutable global state).
	CoordinatorAgentID  string `yaml:"coordinator_agent_id"`
	CoordinatorName     string `yaml:"coordinator_name"`
	CoordinatorProvider string `yaml:"coordinator_provider"`
	CoordinatorModel    string `yaml:"coordinator_model"`
}

// KBConfig controls chunking and retrieval defaults for C1.
type KBConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	DefaultTopK  int `yaml:"default_top_k"`
	MaxTopK      int `yaml:"max_top_k"`
}

// TeamConfig controls team-lifecycle knobs (C5/C7).
type TeamConfig struct {
	ActivationPattern      string        `yaml:"activation_pattern"`
	FileTriggeredRoleCap   int           `yaml:"file_triggered_role_cap"`
	FileAnalysisMaxChars   int           `yaml:"file_analysis_max_chars"`
	ExtractionMaxChars     int           `yaml:"extraction_max_chars"`
	ConfirmationGraceDelay time.Duration `yaml:"confirmation_grace_delay"`
	BackgroundTimeout      time.Duration `yaml:"background_timeout"`
}

// LimitsConfig controls the agent tool loop bound (C3).
type LimitsConfig struct {
	MaxToolLoopTurns int `yaml:"max_tool_loop_turns"`
}

// RetentionConfig controls the background purge of terminal
// orchestration state.
type RetentionConfig struct {
	StateRetention time.Duration `yaml:"state_retention"`
	Interval       time.Duration `yaml:"interval"`
}
