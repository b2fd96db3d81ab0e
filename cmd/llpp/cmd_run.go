package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/model"
	"github.com/robertpaananen/llpp/internal/models"
	"github.com/robertpaananen/llpp/internal/scenario"
	"github.com/robertpaananen/llpp/internal/simulation"
	"github.com/robertpaananen/llpp/internal/strategy"
	"github.com/robertpaananen/llpp/internal/trace"
	"github.com/robertpaananen/llpp/internal/visualization"
	"github.com/spf13/cobra"
)

// addSimulationFlags declares the flags shared by run, compare and view.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("agents", constants.DefaultGeneratedAgents, "Agents in the generated crossing scenario (ignored with a scenario file)")
	cmd.Flags().Uint64("seed", constants.DefaultSeed, "Seed of the generated scenario")
	cmd.Flags().Int("ticks", 0, "Ticks to run (default from config)")
	cmd.Flags().String("mode", "", "Movement mode: direct or resolve (default from config)")
	cmd.Flags().Int("workers", 0, "Workers for the parallel and threads strategies (default from config)")
}

// simSettings is the merged result of config and flags.
type simSettings struct {
	kind    strategy.Kind
	mode    model.Mode
	ticks   int
	workers int
}

// resolveSimSettings applies explicitly set flags over the config values.
func resolveSimSettings(cmd *cobra.Command, env *cliEnv) (simSettings, error) {
	sim := env.cfg.Simulation
	if cmd.Flags().Changed("strategy") {
		sim.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	if cmd.Flags().Changed("mode") {
		sim.Mode, _ = cmd.Flags().GetString("mode")
	}
	if cmd.Flags().Changed("ticks") {
		sim.Ticks, _ = cmd.Flags().GetInt("ticks")
	}
	if cmd.Flags().Changed("workers") {
		sim.Workers, _ = cmd.Flags().GetInt("workers")
	}

	kind, err := strategy.ParseKind(sim.Strategy)
	if err != nil {
		return simSettings{}, err
	}
	mode, err := model.ParseMode(sim.Mode)
	if err != nil {
		return simSettings{}, err
	}
	if sim.Ticks < 0 {
		return simSettings{}, fmt.Errorf("--ticks must be non-negative, got %d", sim.Ticks)
	}
	if sim.Workers < 0 {
		return simSettings{}, fmt.Errorf("--workers must be non-negative, got %d", sim.Workers)
	}
	return simSettings{kind: kind, mode: mode, ticks: sim.Ticks, workers: sim.Workers}, nil
}

// loadScenario reads the scenario file in args, or generates a crossing.
func loadScenario(cmd *cobra.Command, args []string) (*scenario.Scenario, error) {
	if len(args) == 1 {
		return scenario.Load(args[0])
	}
	agents, _ := cmd.Flags().GetInt("agents")
	seed, _ := cmd.Flags().GetUint64("seed")
	if agents <= 0 {
		return nil, fmt.Errorf("--agents must be positive, got %d", agents)
	}
	return scenario.Generate(agents, seed), nil
}

// newRunner creates a runner that logs through env.
func (e *cliEnv) newRunner(workers int) *simulation.Runner {
	r := simulation.NewRunner()
	r.Workers = workers
	r.Logger = e.logger
	r.Decisions = e.decisions
	return r
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "Run a scenario with one strategy",
		Long: `Run a scenario and print the final agent positions.

Without a scenario file, a crossing scenario with --agents agents is generated.
With --record (or trace.enabled in config), every tick is written to the
trace database for later inspection with 'llpp trace'.

Examples:
  llpp run --agents 200 --strategy threads --workers 8
  llpp run crossing.yaml --mode resolve --ticks 50 --format ascii
  llpp run --record --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			record, _ := cmd.Flags().GetBool("record")
			formatName, _ := cmd.Flags().GetString("format")

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			settings, err := resolveSimSettings(cmd, env)
			if err != nil {
				return err
			}
			var format visualization.Format
			if formatName != "" {
				if format, err = visualization.ParseFormat(formatName); err != nil {
					return err
				}
			}
			sc, err := loadScenario(cmd, args)
			if err != nil {
				return err
			}

			var observers []model.Observer
			var runID string
			if record || env.cfg.Trace.Enabled {
				traces, err := trace.Open(env.cfg.TraceDir(env.root))
				if err != nil {
					return fmt.Errorf("failed to open trace store: %w", err)
				}
				defer traces.Close()

				rec, err := traces.NewRecorder(cmd.Context(), sc.Name, string(settings.kind), string(settings.mode), sc.InitialPositions())
				if err != nil {
					return fmt.Errorf("failed to start recording: %w", err)
				}
				observers = append(observers, rec)
				runID = rec.RunID()
			}

			res, err := env.newRunner(settings.workers).Run(sc, settings.kind, settings.mode, settings.ticks, observers...)
			if err != nil {
				return err
			}
			if res.ObserverErr != nil {
				return fmt.Errorf("recording of run %s is incomplete: %d of %d ticks failed: %w",
					runID, res.ObserverFailures, res.Ticks(), res.ObserverErr)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"scenario":   res.Scenario,
					"strategy":   res.Strategy,
					"mode":       res.Mode,
					"agents":     len(res.Final()),
					"ticks":      res.Ticks(),
					"elapsed_ms": res.Elapsed.Milliseconds(),
					"run_id":     runID,
					"positions":  res.Final(),
				})
			}

			fmt.Fprintf(out, "%s: %d agents, %d ticks, %s/%s in %s\n",
				res.Scenario, len(res.Final()), res.Ticks(), res.Strategy, res.Mode, res.Elapsed)
			if runID != "" {
				fmt.Fprintf(out, "Recorded run %s\n", runID)
			}
			if format != "" {
				_, waypoints := sc.Build()
				return renderFinal(out, format, res, waypoints)
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().String("strategy", "", "Execution strategy: sequential, parallel, threads or vector (default from config)")
	cmd.Flags().Bool("record", false, "Record every tick to the trace database")
	cmd.Flags().String("format", "", "Also print the final grid: ascii or json")

	return cmd
}

// renderFinal prints the last snapshot of res.
func renderFinal(w io.Writer, format visualization.Format, res *simulation.Result, waypoints []*models.Waypoint) error {
	switch format {
	case visualization.FormatJSON:
		data, err := visualization.RenderJSON(visualization.Snapshot{
			Tick:      res.Ticks(),
			Strategy:  string(res.Strategy),
			Mode:      string(res.Mode),
			Agents:    res.Final(),
			Waypoints: waypoints,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	default:
		seen := append(append([]models.Position{}, res.Snapshots[0]...), res.Final()...)
		frame := visualization.Fit(seen, waypoints, 1)
		fmt.Fprint(w, visualization.RenderASCII(frame, res.Final(), waypoints))
	}
	return nil
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [scenario.yaml]",
		Short: "Check that strategies produce identical positions",
		Long: `Run the same scenario under several strategies and compare every tick.

The first strategy is the reference. The command fails when any other
strategy diverges from it, and reports the first diverging tick and agent.

Examples:
  llpp compare --agents 500 --ticks 200
  llpp compare crossing.yaml --strategies sequential,vector`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			names, _ := cmd.Flags().GetStringSlice("strategies")

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			settings, err := resolveSimSettings(cmd, env)
			if err != nil {
				return err
			}
			kinds := strategy.Kinds
			if len(names) > 0 {
				kinds = make([]strategy.Kind, 0, len(names))
				for _, name := range names {
					k, err := strategy.ParseKind(strings.TrimSpace(name))
					if err != nil {
						return err
					}
					kinds = append(kinds, k)
				}
			}
			sc, err := loadScenario(cmd, args)
			if err != nil {
				return err
			}

			cmp, err := env.newRunner(settings.workers).Compare(sc, kinds, settings.mode, settings.ticks)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				timings := make([]map[string]interface{}, 0, len(cmp.Results))
				for _, r := range cmp.Results {
					timings = append(timings, map[string]interface{}{
						"strategy":   r.Strategy,
						"elapsed_ms": r.Elapsed.Milliseconds(),
					})
				}
				mismatches := cmp.Mismatches
				if mismatches == nil {
					mismatches = []simulation.Mismatch{}
				}
				if err := json.NewEncoder(out).Encode(map[string]interface{}{
					"scenario":   sc.Name,
					"agents":     sc.Size(),
					"ticks":      settings.ticks,
					"mode":       settings.mode,
					"equivalent": cmp.Equivalent(),
					"timings":    timings,
					"mismatches": mismatches,
				}); err != nil {
					return err
				}
			} else {
				printComparison(out, sc, settings, cmp)
			}

			if !cmp.Equivalent() {
				return fmt.Errorf("%d of %d strategies diverged", len(cmp.Mismatches), len(cmp.Results)-1)
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().StringSlice("strategies", nil, "Strategies to compare, first is the reference (default all)")

	return cmd
}

// printComparison writes a timing table followed by any mismatches.
func printComparison(w io.Writer, sc *scenario.Scenario, settings simSettings, cmp *simulation.Comparison) {
	fmt.Fprintf(w, "%s: %d agents, %d ticks, %s mode\n\n", sc.Name, sc.Size(), settings.ticks, settings.mode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tELAPSED\tRESULT")
	diverged := make(map[strategy.Kind]bool, len(cmp.Mismatches))
	for _, m := range cmp.Mismatches {
		diverged[m.Strategy] = true
	}
	for i, r := range cmp.Results {
		status := "match"
		switch {
		case i == 0:
			status = "reference"
		case diverged[r.Strategy]:
			status = "DIVERGED"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Strategy, r.Elapsed, status)
	}
	tw.Flush()

	for _, m := range cmp.Mismatches {
		fmt.Fprintf(w, "\n%s\n", m)
	}
}
