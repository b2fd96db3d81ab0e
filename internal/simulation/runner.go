package simulation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robertpaananen/llpp/internal/logging"
	"github.com/robertpaananen/llpp/internal/model"
	"github.com/robertpaananen/llpp/internal/models"
	"github.com/robertpaananen/llpp/internal/scenario"
	"github.com/robertpaananen/llpp/internal/strategy"
)

// Runner executes scenarios.
type Runner struct {
	// Workers bounds the parallel strategies. Zero selects their default.
	Workers int

	// Logger receives model logs. Nil discards them.
	Logger *slog.Logger

	// Decisions receives collision decisions in resolve mode.
	Decisions *logging.DecisionLogger
}

// NewRunner creates a runner with default workers and a discarding logger.
func NewRunner() *Runner {
	return &Runner{Logger: logging.Discard()}
}

// Result captures one run.
type Result struct {
	Scenario  string
	Strategy  strategy.Kind
	Mode      model.Mode
	Snapshots [][]models.Position
	Steps     []int
	Elapsed   time.Duration

	// ObserverFailures counts failed observer notifications. ObserverErr is
	// the first of them.
	ObserverFailures int
	ObserverErr      error
}

// Final returns the positions after the last tick.
func (r *Result) Final() []models.Position {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Ticks returns the number of ticks performed.
func (r *Result) Ticks() int {
	if len(r.Snapshots) == 0 {
		return 0
	}
	return len(r.Snapshots) - 1
}

// Run builds sc and advances it ticks times with kind in mode.
func (r *Runner) Run(sc *scenario.Scenario, kind strategy.Kind, mode model.Mode, ticks int, observers ...model.Observer) (*Result, error) {
	if ticks < 0 {
		return nil, fmt.Errorf("ticks must be non-negative, got %d", ticks)
	}

	agents, waypoints := sc.Build()
	m, err := model.Setup(agents, waypoints, model.Config{
		Strategy:  kind,
		Workers:   r.Workers,
		Mode:      mode,
		Logger:    r.Logger,
		Decisions: r.Decisions,
		Observers: observers,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up %s: %w", sc.Name, err)
	}
	defer m.Close()

	result := &Result{
		Scenario:  sc.Name,
		Strategy:  kind,
		Mode:      m.Mode(),
		Snapshots: make([][]models.Position, 0, ticks+1),
	}
	result.Snapshots = append(result.Snapshots, m.Positions())

	start := time.Now()
	for range ticks {
		m.Tick()
		result.Snapshots = append(result.Snapshots, m.Positions())
	}
	result.Elapsed = time.Since(start)

	result.ObserverFailures, result.ObserverErr = m.ObserverErrors()

	result.Steps = make([]int, len(m.Agents()))
	for i, a := range m.Agents() {
		result.Steps[i] = a.Steps()
	}

	r.Decisions.Log(map[string]any{
		"event":    "run",
		"scenario": sc.Name,
		"strategy": string(kind),
		"mode":     string(result.Mode),
		"agents":   len(result.Steps),
		"ticks":    ticks,
		"elapsed":  result.Elapsed.String(),
	})

	return result, nil
}

// Mismatch locates the first difference between two runs.
type Mismatch struct {
	Strategy  strategy.Kind   `json:"strategy"`
	Reference strategy.Kind   `json:"reference"`
	Tick      int             `json:"tick"`
	Agent     int             `json:"agent"`
	Got       models.Position `json:"got"`
	Want      models.Position `json:"want"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s diverges from %s at tick %d: agent %d at %s, want %s",
		m.Strategy, m.Reference, m.Tick, m.Agent, m.Got, m.Want)
}

// Comparison holds the runs of several strategies over the same scenario.
type Comparison struct {
	Results    []*Result
	Mismatches []Mismatch
}

// Equivalent reports whether every strategy matched the reference.
func (c *Comparison) Equivalent() bool {
	return len(c.Mismatches) == 0
}

// Compare runs sc under every kind and checks each run against the first.
// At most one mismatch, the earliest, is reported per strategy.
func (r *Runner) Compare(sc *scenario.Scenario, kinds []strategy.Kind, mode model.Mode, ticks int) (*Comparison, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no strategies to compare")
	}

	cmp := &Comparison{Results: make([]*Result, 0, len(kinds))}
	for _, kind := range kinds {
		res, err := r.Run(sc, kind, mode, ticks)
		if err != nil {
			return nil, err
		}
		cmp.Results = append(cmp.Results, res)
	}

	ref := cmp.Results[0]
	for _, res := range cmp.Results[1:] {
		if mm, ok := firstMismatch(ref, res); ok {
			cmp.Mismatches = append(cmp.Mismatches, mm)
		}
	}
	return cmp, nil
}

func firstMismatch(ref, res *Result) (Mismatch, bool) {
	for tick := range ref.Snapshots {
		want, got := ref.Snapshots[tick], res.Snapshots[tick]
		for i := range want {
			if got[i] != want[i] {
				return Mismatch{
					Strategy:  res.Strategy,
					Reference: ref.Strategy,
					Tick:      tick,
					Agent:     i,
					Got:       got[i],
					Want:      want[i],
				}, true
			}
		}
	}
	return Mismatch{}, false
}
