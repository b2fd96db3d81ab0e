package main

import (
	"fmt"
	"path/filepath"

	"github.com/robertpaananen/llpp/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve llpp tools over the Model Context Protocol",
		Long: `Start an MCP server on stdio exposing llpp_run, llpp_compare and llpp_runs.

Scenario paths passed by clients must resolve inside --root. With --record
(or trace.enabled in config), clients may record runs to the trace database.
Every tool call is audited to <root>/.llpp/audit.jsonl.

Logs go to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			record, _ := cmd.Flags().GetBool("record")

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			root, err := filepath.Abs(env.root)
			if err != nil {
				return fmt.Errorf("failed to resolve root: %w", err)
			}

			traceDir := ""
			if record || env.cfg.Trace.Enabled {
				traceDir = env.cfg.TraceDir(root)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "llpp",
				Version:  version,
				Root:     root,
				TraceDir: traceDir,
				Workers:  env.cfg.Simulation.Workers,
				Logger:   env.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}
			defer server.Close()

			env.logger.Info("mcp server starting", "root", root, "recording", traceDir != "")
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().Bool("record", false, "Allow clients to record runs to the trace database")

	return cmd
}
