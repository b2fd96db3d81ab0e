package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/robertpaananen/llpp/internal/pathutil"
	"github.com/robertpaananen/llpp/internal/trace"
	"github.com/robertpaananen/llpp/internal/visualization"
	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `List, show, export, delete and prune runs recorded with 'llpp run --record'.

Runs are stored in <root>/.llpp/trace.db unless trace.dir is configured.
Run ids may be abbreviated to any unique prefix.

Examples:
  llpp trace list
  llpp trace show 3f2a --tick 10
  llpp trace export 3f2a --format arrow -o run.arrow
  llpp trace prune --keep 20 --older-than 30d`,
	}

	cmd.AddCommand(
		newTraceListCmd(),
		newTraceShowCmd(),
		newTraceExportCmd(),
		newTraceDeleteCmd(),
		newTracePruneCmd(),
	)
	return cmd
}

// openTraceStore opens the trace database configured for this invocation.
func openTraceStore(cmd *cobra.Command) (*trace.Store, error) {
	env, err := loadEnv(cmd)
	if err != nil {
		return nil, err
	}
	env.Close()

	store, err := trace.Open(env.cfg.TraceDir(env.root))
	if err != nil {
		return nil, fmt.Errorf("failed to open trace store: %w", err)
	}
	return store, nil
}

func newTraceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			store, err := openTraceStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if runs == nil {
					runs = []trace.Run{}
				}
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCENARIO\tSTRATEGY\tMODE\tAGENTS\tTICKS\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					shortID(r.ID), r.Scenario, r.Strategy, r.Mode, r.Agents, r.Ticks, r.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

// shortID abbreviates a run id for tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newTraceShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the positions of a run at one tick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			tick, _ := cmd.Flags().GetInt("tick")

			store, err := openTraceStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if tick < 0 {
				tick = run.Ticks
			}
			positions, err := store.Positions(ctx, run.ID, tick)
			if err != nil {
				return fmt.Errorf("run %s has no tick %d: %w", shortID(run.ID), tick, err)
			}

			snap := visualization.Snapshot{
				Tick:     tick,
				Strategy: run.Strategy,
				Mode:     run.Mode,
				Agents:   positions,
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := visualization.RenderJSON(snap)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "Run %s (%s, %s/%s)\n", run.ID, run.Scenario, run.Strategy, run.Mode)
			fmt.Fprintf(out, "Tick %d of %d, %d agents\n\n", tick, run.Ticks, len(positions))
			frame := visualization.Fit(positions, nil, 1)
			fmt.Fprint(out, visualization.RenderASCII(frame, positions, nil))
			return nil
		},
	}

	cmd.Flags().Int("tick", -1, "Tick to show (default the last)")

	return cmd
}

func newTraceExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export every position of a run",
		Long: `Export one row per agent per tick.

The arrow format writes an Arrow IPC stream with int64 columns
tick, agent, x and y. The jsonl format writes one JSON object per row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			if format != "arrow" && format != "jsonl" {
				return fmt.Errorf("unknown export format %q (valid: arrow, jsonl)", format)
			}

			store, err := openTraceStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", pathutil.RedactPath(output), err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "arrow":
				err = store.ExportArrow(ctx, run.ID, w)
			default:
				err = store.ExportJSONL(ctx, run.ID, w)
			}
			if err != nil {
				return err
			}

			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported run %s to %s\n", shortID(run.ID), output)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "jsonl", "Export format: arrow or jsonl")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}

func newTraceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			store, err := openTraceStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteRun(ctx, run.ID); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "deleted",
					"id":     run.ID,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
			return nil
		},
	}
}

func newTracePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs",
		Long: `Delete runs not kept by any of the given retention rules.

A run survives if it is among the --keep newest, younger than --older-than,
or within the newest runs totalling --max-rows position rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keepN, _ := cmd.Flags().GetInt("keep")
			olderThan, _ := cmd.Flags().GetString("older-than")
			maxRows, _ := cmd.Flags().GetInt64("max-rows")

			var policies []trace.RetentionPolicy
			if cmd.Flags().Changed("keep") {
				if keepN < 0 {
					return fmt.Errorf("--keep must be non-negative, got %d", keepN)
				}
				policies = append(policies, &trace.CountPolicy{MaxCount: keepN})
			}
			if olderThan != "" {
				age, err := trace.ParseDuration(olderThan)
				if err != nil {
					return err
				}
				policies = append(policies, &trace.AgePolicy{MaxAge: age})
			}
			if cmd.Flags().Changed("max-rows") {
				policies = append(policies, &trace.RowPolicy{MaxRows: maxRows})
			}
			if len(policies) == 0 {
				return fmt.Errorf("at least one of --keep, --older-than or --max-rows is required")
			}

			store, err := openTraceStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.Prune(cmd.Context(), &trace.CompositePolicy{Policies: policies})
			if err != nil {
				return err
			}

			if jsonOut {
				if deleted == nil {
					deleted = []string{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"deleted": deleted,
					"count":   len(deleted),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d run(s)\n", len(deleted))
			return nil
		},
	}

	cmd.Flags().Int("keep", 0, "Keep the N newest runs")
	cmd.Flags().String("older-than", "", "Delete runs older than this (e.g. 72h, 30d, 2w)")
	cmd.Flags().Int64("max-rows", 0, "Keep the newest runs up to this many position rows")

	return cmd
}
