// Package scenario loads simulation setups from YAML files and generates
// synthetic ones.
//
// A Scenario is a description, not live state: Build returns fresh agents
// and waypoints on every call, so several runs can start from the same
// positions.
package scenario

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/robertpaananen/llpp/internal/agent"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/models"
	"github.com/robertpaananen/llpp/internal/pathutil"
	"github.com/robertpaananen/llpp/internal/sanitize"
	"gopkg.in/yaml.v3"
)

// Scenario is the YAML document describing a run.
type Scenario struct {
	Name      string         `json:"name" yaml:"name"`
	Seed      uint64         `json:"seed" yaml:"seed"`
	Waypoints []WaypointSpec `json:"waypoints" yaml:"waypoints"`
	Agents    []AgentSpec    `json:"agents" yaml:"agents"`
}

// WaypointSpec describes one circular waypoint.
type WaypointSpec struct {
	ID     int     `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Radius float64 `json:"r" yaml:"r"`
}

// AgentSpec spawns N agents scattered around (X, Y) within a DX by DY box,
// each visiting Waypoints in order.
type AgentSpec struct {
	X         int   `json:"x" yaml:"x"`
	Y         int   `json:"y" yaml:"y"`
	N         int   `json:"n,omitempty" yaml:"n,omitempty"`
	DX        int   `json:"dx,omitempty" yaml:"dx,omitempty"`
	DY        int   `json:"dy,omitempty" yaml:"dy,omitempty"`
	Waypoints []int `json:"waypoints" yaml:"waypoints"`
}

// count returns N, treating zero as one agent.
func (s AgentSpec) count() int {
	if s.N == 0 {
		return 1
	}
	return s.N
}

// Parse decodes and validates a scenario document. The name is sanitized.
func Parse(data []byte) (*Scenario, error) {
	sc := &Scenario{Seed: constants.DefaultSeed}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	sc.Name = sanitize.Name(sc.Name)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Load reads the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathutil.RedactPath(path), err)
	}
	if sc.Name == "" {
		sc.Name = sanitize.Name(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return sc, nil
}

// LoadWithin reads a scenario whose path must resolve inside root.
func LoadWithin(root, path string) (*Scenario, error) {
	resolved, err := pathutil.Within(root, path)
	if err != nil {
		return nil, err
	}
	return Load(resolved)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks waypoint ids, radii and agent counts.
func (sc *Scenario) Validate() error {
	ids := make(map[int]bool, len(sc.Waypoints))
	for _, w := range sc.Waypoints {
		if ids[w.ID] {
			return fmt.Errorf("duplicate waypoint id %d", w.ID)
		}
		if !(w.Radius > 0) || math.IsInf(w.Radius, 0) {
			return fmt.Errorf("waypoint %d: radius must be positive and finite, got %g", w.ID, w.Radius)
		}
		if !finite(w.X) || !finite(w.Y) {
			return fmt.Errorf("waypoint %d: center must be finite, got (%g, %g)", w.ID, w.X, w.Y)
		}
		ids[w.ID] = true
	}

	for i, a := range sc.Agents {
		if a.N < 0 {
			return fmt.Errorf("agent block %d: n must be non-negative, got %d", i, a.N)
		}
		if a.DX < 0 || a.DY < 0 {
			return fmt.Errorf("agent block %d: dx and dy must be non-negative", i)
		}
		for _, id := range a.Waypoints {
			if !ids[id] {
				return fmt.Errorf("agent block %d: unknown waypoint id %d", i, id)
			}
		}
	}
	return nil
}

// Size returns the number of agents Build creates.
func (sc *Scenario) Size() int {
	n := 0
	for _, a := range sc.Agents {
		n += a.count()
	}
	return n
}

// Build creates the agents and waypoints of the scenario. Spawn offsets come
// from a PCG source seeded with Seed, so equal scenarios build equal state.
func (sc *Scenario) Build() ([]*agent.Agent, []*models.Waypoint) {
	waypoints := make([]*models.Waypoint, len(sc.Waypoints))
	byID := make(map[int]*models.Waypoint, len(sc.Waypoints))
	for i, w := range sc.Waypoints {
		waypoints[i] = models.NewWaypoint(w.ID, w.X, w.Y, w.Radius)
		byID[w.ID] = waypoints[i]
	}

	rng := rand.New(rand.NewPCG(sc.Seed, sc.Seed))
	agents := make([]*agent.Agent, 0, sc.Size())
	for _, spec := range sc.Agents {
		for range spec.count() {
			a := agent.New(spec.X+jitter(rng, spec.DX), spec.Y+jitter(rng, spec.DY))
			for _, id := range spec.Waypoints {
				a.AddWaypoint(byID[id])
			}
			agents = append(agents, a)
		}
	}
	return agents, waypoints
}

// jitter returns a uniform offset in [-d/2, d/2].
func jitter(rng *rand.Rand, d int) int {
	if d <= 0 {
		return 0
	}
	return rng.IntN(d+1) - d/2
}

// Generate builds a crossing scenario with n agents: two groups start on
// opposite sides of the grid and swap places, then return.
func Generate(n int, seed uint64) *Scenario {
	if n < 0 {
		n = 0
	}
	half := n / 2
	spread := 2*half + 2

	sc := &Scenario{
		Name: fmt.Sprintf("generated-%d", n),
		Seed: seed,
		Waypoints: []WaypointSpec{
			{ID: 1, X: -float64(spread), Y: 0, Radius: 3},
			{ID: 2, X: float64(spread), Y: 0, Radius: 3},
		},
	}

	// One agent per row keeps start cells distinct.
	for i := 0; i < n; i++ {
		spec := AgentSpec{Y: i - half, N: 1}
		if i%2 == 0 {
			spec.X = -spread
			spec.Waypoints = []int{2, 1}
		} else {
			spec.X = spread
			spec.Waypoints = []int{1, 2}
		}
		sc.Agents = append(sc.Agents, spec)
	}
	return sc
}

// Marshal encodes the scenario as YAML.
func (sc *Scenario) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("marshaling scenario: %w", err)
	}
	return data, nil
}

// InitialPositions returns the start cells Build assigns, in agent order.
func (sc *Scenario) InitialPositions() []models.Position {
	agents, _ := sc.Build()
	out := make([]models.Position, len(agents))
	for i, a := range agents {
		out[i] = a.Position()
	}
	return out
}
