package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/robertpaananen/llpp/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage llpp configuration",
		Long: `View and modify llpp configuration settings.

Configuration is stored in ~/.llpp/config.yaml unless --config is given.
Environment variables (LLPP_STRATEGY, LLPP_WORKERS, LLPP_MODE, LLPP_TICKS,
LLPP_LOG_LEVEL, LLPP_TRACE, LLPP_TRACE_DIR) override the file.

Examples:
  llpp config list                          # Show effective settings
  llpp config get simulation.strategy       # Get a specific setting
  llpp config set simulation.workers 8      # Set a setting`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

// configPath returns --config or the default config location.
func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, _ := cmd.Flags().GetString("root")

			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			fmt.Fprintln(out, "Simulation Settings:")
			fmt.Fprintf(out, "  simulation.strategy:  %s\n", cfg.Simulation.Strategy)
			fmt.Fprintf(out, "  simulation.workers:   %s\n", workersOrDefault(cfg.Simulation.Workers))
			fmt.Fprintf(out, "  simulation.mode:      %s\n", cfg.Simulation.Mode)
			fmt.Fprintf(out, "  simulation.ticks:     %d\n", cfg.Simulation.Ticks)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging Settings:")
			fmt.Fprintf(out, "  logging.level:        %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Trace Settings:")
			fmt.Fprintf(out, "  trace.enabled:        %v\n", cfg.Trace.Enabled)
			fmt.Fprintf(out, "  trace.dir:            %s\n", valueOrDefault(cfg.Trace.Dir, "(default: "+cfg.TraceDir(root)+")"))

			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]
			value := args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.LlppConfig, key string) (interface{}, bool) {
	switch key {
	case "simulation.strategy":
		return cfg.Simulation.Strategy, true
	case "simulation.workers":
		return cfg.Simulation.Workers, true
	case "simulation.mode":
		return cfg.Simulation.Mode, true
	case "simulation.ticks":
		return cfg.Simulation.Ticks, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "trace.enabled":
		return cfg.Trace.Enabled, true
	case "trace.dir":
		return cfg.Trace.Dir, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.LlppConfig, key, value string) error {
	switch key {
	case "simulation.strategy":
		cfg.Simulation.Strategy = value
	case "simulation.workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid workers: %s (must be an integer)", value)
		}
		cfg.Simulation.Workers = n
	case "simulation.mode":
		cfg.Simulation.Mode = value
	case "simulation.ticks":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ticks: %s (must be an integer)", value)
		}
		cfg.Simulation.Ticks = n
	case "logging.level":
		cfg.Logging.Level = value
	case "trace.enabled":
		cfg.Trace.Enabled = value == "true" || value == "1"
	case "trace.dir":
		cfg.Trace.Dir = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// workersOrDefault formats a worker count, where zero means the strategy default.
func workersOrDefault(n int) string {
	if n == 0 {
		return "(default)"
	}
	return strconv.Itoa(n)
}
