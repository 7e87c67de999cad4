package config

import (
	"fmt"
	"regexp"
)

// validate performs sanity checks on resolved configuration.
func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}
	if cfg.KB.ChunkSize <= cfg.KB.ChunkOverlap {
		return fmt.Errorf("kb.chunk_size (%d) must exceed kb.chunk_overlap (%d)", cfg.KB.ChunkSize, cfg.KB.ChunkOverlap)
	}
	if cfg.KB.DefaultTopK < 1 || cfg.KB.DefaultTopK > cfg.KB.MaxTopK {
		return fmt.Errorf("kb.default_top_k (%d) must be within [1, max_top_k=%d]", cfg.KB.DefaultTopK, cfg.KB.MaxTopK)
	}
	if cfg.Limits.MaxToolLoopTurns < 1 {
		return fmt.Errorf("limits.max_tool_loop_turns must be >= 1")
	}
	if _, err := regexp.Compile(cfg.Team.ActivationPattern); err != nil {
		return fmt.Errorf("team.activation_pattern is not a valid regexp: %w", err)
	}
	if cfg.Agents.CoordinatorAgentID == "" {
		return fmt.Errorf("agents.coordinator_agent_id must not be empty")
	}
	return nil
}
