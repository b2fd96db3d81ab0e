package mcp

import (
	"github.com/robertpaananen/llpp/internal/models"
	"github.com/robertpaananen/llpp/internal/simulation"
)

// RunInput defines the input for the llpp_run tool.
type RunInput struct {
	Scenario string `json:"scenario,omitempty" jsonschema:"Scenario YAML path relative to the server root; empty generates one"`
	Agents   int    `json:"agents,omitempty" jsonschema:"Number of agents for a generated scenario (default 64)"`
	Seed     uint64 `json:"seed,omitempty" jsonschema:"Seed for a generated scenario (default 1)"`
	Strategy string `json:"strategy,omitempty" jsonschema:"Execution strategy: sequential, parallel, threads or vector (default sequential)"`
	Mode     string `json:"mode,omitempty" jsonschema:"direct commits desired positions, resolve avoids collisions (default direct)"`
	Ticks    int    `json:"ticks,omitempty" jsonschema:"Number of ticks to run (default 100)"`
	Record   bool   `json:"record,omitempty" jsonschema:"Record every tick in the trace database"`
}

// RunOutput defines the output for the llpp_run tool.
type RunOutput struct {
	Scenario  string            `json:"scenario" jsonschema:"Scenario name"`
	Strategy  string            `json:"strategy" jsonschema:"Strategy used"`
	Mode      string            `json:"mode" jsonschema:"Mode used"`
	Agents    int               `json:"agents" jsonschema:"Number of agents"`
	Ticks     int               `json:"ticks" jsonschema:"Ticks performed"`
	Positions []models.Position `json:"positions" jsonschema:"Final agent positions in agent order"`
	RunID     string            `json:"run_id,omitempty" jsonschema:"Trace run id when recorded"`
	ElapsedMs int64             `json:"elapsed_ms" jsonschema:"Wall time spent ticking"`
}

// CompareInput defines the input for the llpp_compare tool.
type CompareInput struct {
	Scenario   string   `json:"scenario,omitempty" jsonschema:"Scenario YAML path relative to the server root; empty generates one"`
	Agents     int      `json:"agents,omitempty" jsonschema:"Number of agents for a generated scenario (default 64)"`
	Seed       uint64   `json:"seed,omitempty" jsonschema:"Seed for a generated scenario (default 1)"`
	Strategies []string `json:"strategies,omitempty" jsonschema:"Strategies to compare; the first is the reference (default all)"`
	Mode       string   `json:"mode,omitempty" jsonschema:"direct or resolve (default direct)"`
	Ticks      int      `json:"ticks,omitempty" jsonschema:"Number of ticks to run (default 100)"`
}

// StrategyTiming reports the wall time of one strategy.
type StrategyTiming struct {
	Strategy  string `json:"strategy"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// CompareOutput defines the output for the llpp_compare tool.
type CompareOutput struct {
	Scenario   string                `json:"scenario" jsonschema:"Scenario name"`
	Agents     int                   `json:"agents" jsonschema:"Number of agents"`
	Ticks      int                   `json:"ticks" jsonschema:"Ticks performed by every strategy"`
	Equivalent bool                  `json:"equivalent" jsonschema:"Whether every strategy matched the reference at every tick"`
	Mismatches []simulation.Mismatch `json:"mismatches,omitempty" jsonschema:"First divergence per strategy"`
	Timings    []StrategyTiming      `json:"timings" jsonschema:"Wall time per strategy"`
}

// RunsInput defines the input for the llpp_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return, newest first (default all)"`
}

// RunSummary describes a recorded run.
type RunSummary struct {
	ID        string `json:"id"`
	Scenario  string `json:"scenario"`
	Strategy  string `json:"strategy"`
	Mode      string `json:"mode"`
	Agents    int    `json:"agents"`
	Ticks     int    `json:"ticks"`
	CreatedAt string `json:"created_at"`
}

// RunsOutput defines the output for the llpp_runs tool.
type RunsOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Recorded runs"`
	Count int          `json:"count" jsonschema:"Number of runs returned"`
}
