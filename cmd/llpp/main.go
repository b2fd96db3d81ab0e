package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/robertpaananen/llpp/internal/config"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "llpp",
		Short: "Pedestrian crowd simulation on a 2-D grid",
		Long: `llpp moves agents between waypoints on an integer grid, one tick at a time.

Every tick can be computed by four interchangeable strategies (sequential,
parallel, threads, vector) that must produce identical positions. In resolve
mode, agents only move onto free cells.

Examples:
  llpp run --agents 100 --strategy vector --ticks 500
  llpp run crossing.yaml --mode resolve --format ascii
  llpp compare crossing.yaml
  llpp view --agents 40`,
		SilenceUsage: true,
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCompareCmd(),
		newViewCmd(),
		newTraceCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

// addPersistentFlags declares the global flags every subcommand reads.
func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	cmd.PersistentFlags().String("root", ".", "Project root directory")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.llpp/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: warn, info, debug or trace")
}

// cliEnv is the configuration, logger and decision log of one invocation.
type cliEnv struct {
	root      string
	cfg       *config.LlppConfig
	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// loadEnv resolves the global flags against the config file and environment.
func loadEnv(cmd *cobra.Command) (*cliEnv, error) {
	root, _ := cmd.Flags().GetString("root")
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cliEnv{
		root:      root,
		cfg:       cfg,
		logger:    logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		decisions: logging.NewDecisionLogger(filepath.Join(root, constants.DirName), cfg.Logging.Level),
	}, nil
}

// Close flushes the decision log.
func (e *cliEnv) Close() {
	e.decisions.Close()
}

// interruptContext returns a context cancelled on SIGINT or SIGTERM.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
