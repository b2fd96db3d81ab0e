package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/model"
	"github.com/robertpaananen/llpp/internal/ratelimit"
	"github.com/robertpaananen/llpp/internal/scenario"
	"github.com/robertpaananen/llpp/internal/strategy"
)

// registerTools registers all llpp MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolRun,
		Description: "Run a scenario with one execution strategy and return the final agent positions",
	}, s.handleRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolCompare,
		Description: "Run a scenario under several execution strategies and report whether they produce identical positions",
	}, s.handleCompare)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolRuns,
		Description: "List runs recorded in the trace database",
	}, s.handleRuns)
}

// loadScenario resolves the scenario of a tool call: a YAML file under the
// server root, or a generated crossing when path is empty.
func (s *Server) loadScenario(path string, agents int, seed uint64) (*scenario.Scenario, error) {
	if path != "" {
		sc, err := scenario.LoadWithin(s.root, path)
		if err != nil {
			return nil, err
		}
		if sc.Size() > maxAgents {
			return nil, fmt.Errorf("scenario has %d agents, limit is %d", sc.Size(), maxAgents)
		}
		return sc, nil
	}

	n := agents
	if n == 0 {
		n = constants.DefaultGeneratedAgents
	}
	if n < 0 || n > maxAgents {
		return nil, fmt.Errorf("agents must be between 1 and %d, got %d", maxAgents, n)
	}
	if seed == 0 {
		seed = constants.DefaultSeed
	}
	return scenario.Generate(n, seed), nil
}

// ticksOrDefault validates a tick count.
func ticksOrDefault(ticks int) (int, error) {
	if ticks == 0 {
		return constants.DefaultTicks, nil
	}
	if ticks < 0 || ticks > maxTicks {
		return 0, fmt.Errorf("ticks must be between 1 and %d, got %d", maxTicks, ticks)
	}
	return ticks, nil
}

// handleRun implements the llpp_run tool.
func (s *Server) handleRun(ctx context.Context, req *sdk.CallToolRequest, args RunInput) (_ *sdk.CallToolResult, _ RunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolRun, start, retErr, sanitizeToolParams(map[string]any{
			"scenario": args.Scenario, "agents": args.Agents, "seed": args.Seed,
			"strategy": args.Strategy, "mode": args.Mode, "ticks": args.Ticks, "record": args.Record,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolRun); err != nil {
		return nil, RunOutput{}, err
	}

	kind := strategy.KindSequential
	if args.Strategy != "" {
		k, err := strategy.ParseKind(args.Strategy)
		if err != nil {
			return nil, RunOutput{}, err
		}
		kind = k
	}
	mode, err := model.ParseMode(args.Mode)
	if err != nil {
		return nil, RunOutput{}, err
	}
	ticks, err := ticksOrDefault(args.Ticks)
	if err != nil {
		return nil, RunOutput{}, err
	}
	sc, err := s.loadScenario(args.Scenario, args.Agents, args.Seed)
	if err != nil {
		return nil, RunOutput{}, err
	}

	var observers []model.Observer
	var runID string
	if args.Record {
		if s.traces == nil {
			return nil, RunOutput{}, fmt.Errorf("recording is disabled: server started without a trace directory")
		}
		rec, err := s.traces.NewRecorder(ctx, sc.Name, string(kind), string(mode), sc.InitialPositions())
		if err != nil {
			return nil, RunOutput{}, err
		}
		observers = append(observers, rec)
		runID = rec.RunID()
	}

	res, err := s.runner.Run(sc, kind, mode, ticks, observers...)
	if err != nil {
		return nil, RunOutput{}, err
	}
	if res.ObserverErr != nil {
		return nil, RunOutput{}, fmt.Errorf("recording of run %s is incomplete: %d of %d ticks failed: %w",
			runID, res.ObserverFailures, res.Ticks(), res.ObserverErr)
	}

	return nil, RunOutput{
		Scenario:  sc.Name,
		Strategy:  string(res.Strategy),
		Mode:      string(res.Mode),
		Agents:    len(res.Final()),
		Ticks:     res.Ticks(),
		Positions: res.Final(),
		RunID:     runID,
		ElapsedMs: res.Elapsed.Milliseconds(),
	}, nil
}

// handleCompare implements the llpp_compare tool.
func (s *Server) handleCompare(ctx context.Context, req *sdk.CallToolRequest, args CompareInput) (_ *sdk.CallToolResult, _ CompareOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolCompare, start, retErr, sanitizeToolParams(map[string]any{
			"scenario": args.Scenario, "agents": args.Agents, "seed": args.Seed,
			"strategies": args.Strategies, "mode": args.Mode, "ticks": args.Ticks,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolCompare); err != nil {
		return nil, CompareOutput{}, err
	}

	kinds := strategy.Kinds
	if len(args.Strategies) > 0 {
		kinds = make([]strategy.Kind, 0, len(args.Strategies))
		for _, name := range args.Strategies {
			k, err := strategy.ParseKind(name)
			if err != nil {
				return nil, CompareOutput{}, err
			}
			kinds = append(kinds, k)
		}
	}
	mode, err := model.ParseMode(args.Mode)
	if err != nil {
		return nil, CompareOutput{}, err
	}
	ticks, err := ticksOrDefault(args.Ticks)
	if err != nil {
		return nil, CompareOutput{}, err
	}
	sc, err := s.loadScenario(args.Scenario, args.Agents, args.Seed)
	if err != nil {
		return nil, CompareOutput{}, err
	}

	cmp, err := s.runner.Compare(sc, kinds, mode, ticks)
	if err != nil {
		return nil, CompareOutput{}, err
	}

	out := CompareOutput{
		Scenario:   sc.Name,
		Agents:     sc.Size(),
		Ticks:      ticks,
		Equivalent: cmp.Equivalent(),
		Mismatches: cmp.Mismatches,
		Timings:    make([]StrategyTiming, 0, len(cmp.Results)),
	}
	for _, r := range cmp.Results {
		out.Timings = append(out.Timings, StrategyTiming{Strategy: string(r.Strategy), ElapsedMs: r.Elapsed.Milliseconds()})
	}
	if !out.Equivalent {
		s.logger.Warn("strategies diverged", "scenario", sc.Name, "mismatches", len(cmp.Mismatches))
	}
	return nil, out, nil
}

// handleRuns implements the llpp_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolRuns, start, retErr, sanitizeToolParams(map[string]any{"limit": args.Limit}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolRuns); err != nil {
		return nil, RunsOutput{}, err
	}
	if s.traces == nil {
		return nil, RunsOutput{Runs: []RunSummary{}}, nil
	}

	runs, err := s.traces.ListRuns(ctx)
	if err != nil {
		return nil, RunsOutput{}, err
	}
	if args.Limit > 0 && len(runs) > args.Limit {
		runs = runs[:args.Limit]
	}

	out := RunsOutput{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:        r.ID,
			Scenario:  r.Scenario,
			Strategy:  r.Strategy,
			Mode:      r.Mode,
			Agents:    r.Agents,
			Ticks:     r.Ticks,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}
	out.Count = len(out.Runs)
	return nil, out, nil
}
