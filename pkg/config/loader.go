package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, and validates configuration. This is the
// primary entry point for configuration loading.
//
// Steps performed:
//  1. Start from built-in defaults.
//  2. Load service.yaml from configDir, if present.
//  3. Expand environment variables.
//  4. Merge user overrides on top of defaults.
//  5. Validate.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"addr", cfg.Server.Addr,
		"chunk_size", cfg.KB.ChunkSize,
		"max_tool_loop_turns", cfg.Limits.MaxToolLoopTurns)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	cfg := defaultConfig()
	cfg.configDir = configDir

	var userCfg Config
	if err := loadYAML(configDir, "service.yaml", &userCfg); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		slog.Info("no service.yaml found, using built-in defaults", "config_dir", configDir)
		return cfg, nil
	}

	if err := mergo.Merge(cfg, userCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge user configuration: %w", err)
	}

	return cfg, nil
}

func loadYAML(configDir, filename string, target any) error {
	path := filepath.Join(configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrConfigNotFound, path, err)
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}
