// Package config provides unified configuration loading for llpp.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/strategy"
	"gopkg.in/yaml.v3"
)

// LlppConfig contains all llpp configuration settings.
type LlppConfig struct {
	// Simulation selects how ticks are executed.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Trace controls recording of runs to the SQLite trace store.
	Trace TraceConfig `json:"trace" yaml:"trace"`
}

// SimulationConfig configures the orchestrator.
type SimulationConfig struct {
	// Strategy is the execution strategy: "sequential", "parallel", "threads" or "vector".
	Strategy string `json:"strategy" yaml:"strategy"`

	// Workers bounds the parallel and threads strategies. 0 selects their default.
	Workers int `json:"workers" yaml:"workers"`

	// Mode is "direct" (commit desired positions) or "resolve" (collision-aware moves).
	Mode string `json:"mode" yaml:"mode"`

	// Ticks is the number of steps a run performs.
	Ticks int `json:"ticks" yaml:"ticks"`
}

// LoggingConfig configures llpp's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" enables collision decision logging to .llpp/decisions.jsonl.
	// "trace" additionally logs every agent position each tick.
	Level string `json:"level" yaml:"level"`
}

// TraceConfig configures run recording.
type TraceConfig struct {
	// Enabled records every tick of every run.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir holds trace.db. Supports ${VAR} syntax for env vars.
	// Empty means <root>/.llpp.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// validModes lists the accepted simulation modes.
var validModes = map[string]bool{"direct": true, "resolve": true}

// validLevels lists the accepted log levels.
var validLevels = map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}

// Default returns a LlppConfig with sensible defaults.
func Default() *LlppConfig {
	return &LlppConfig{
		Simulation: SimulationConfig{
			Strategy: string(strategy.KindSequential),
			Workers:  0,
			Mode:     "direct",
			Ticks:    constants.DefaultTicks,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			Enabled: false,
		},
	}
}

// DefaultPath returns ~/.llpp/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DirName, "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when path
// is empty, then applies environment variables.
// Order: defaults -> config file -> environment variables
func Load(path string) (*LlppConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*LlppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Trace.Dir = expandEnvVars(config.Trace.Dir)

	return config, nil
}

// Save writes the configuration as YAML to path, creating parent directories.
func (c *LlppConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *LlppConfig) Validate() error {
	if _, err := strategy.ParseKind(c.Simulation.Strategy); err != nil {
		return err
	}

	if c.Simulation.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Simulation.Workers)
	}

	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Simulation.Ticks)
	}

	if !validModes[c.Simulation.Mode] {
		return fmt.Errorf("invalid mode: %s (valid: direct, resolve)", c.Simulation.Mode)
	}

	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// TraceDir returns the configured trace directory, falling back to root/.llpp.
func (c *LlppConfig) TraceDir(root string) string {
	if c.Trace.Dir != "" {
		return c.Trace.Dir
	}
	return filepath.Join(root, constants.DirName)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *LlppConfig) {
	if v := os.Getenv("LLPP_STRATEGY"); v != "" {
		config.Simulation.Strategy = v
	}

	if v := os.Getenv("LLPP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}

	if v := os.Getenv("LLPP_MODE"); v != "" {
		config.Simulation.Mode = v
	}

	if v := os.Getenv("LLPP_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Ticks = n
		}
	}

	if v := os.Getenv("LLPP_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("LLPP_TRACE"); v != "" {
		config.Trace.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("LLPP_TRACE_DIR"); v != "" {
		config.Trace.Dir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
