// Package collision turns an agent's desired position into a committed one
// that does not overlap any neighbor.
//
// Three candidates are tried in a fixed order. The first is the desired cell.
// For straight moves (north, south, east, west, or none) the other two are the
// desired cell shifted sideways, left then right of the heading. For diagonal
// moves they are the horizontal-only step and then the vertical-only step. The
// first candidate that no neighbor occupies wins; if all three are taken the
// agent stays where it is.
package collision

import (
	"github.com/robertpaananen/llpp/internal/agent"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/logging"
	"github.com/robertpaananen/llpp/internal/models"
	"github.com/robertpaananen/llpp/internal/neighbor"
)

// Candidates returns the prioritized positions for a move from current to desired.
func Candidates(current, desired models.Position) [constants.CandidateCount]models.Position {
	d := desired.Sub(current)

	var c [constants.CandidateCount]models.Position
	c[0] = desired
	if d.X == 0 || d.Y == 0 {
		c[1] = models.Pos(desired.X+d.Y, desired.Y+d.X)
		c[2] = models.Pos(desired.X-d.Y, desired.Y-d.X)
	} else {
		c[1] = models.Pos(desired.X, current.Y)
		c[2] = models.Pos(current.X, desired.Y)
	}
	return c
}

// Occupied collects the current positions of agents.
func Occupied(agents []*agent.Agent) map[models.Position]struct{} {
	taken := make(map[models.Position]struct{}, len(agents))
	for _, a := range agents {
		taken[a.Position()] = struct{}{}
	}
	return taken
}

// Choose returns the index of the first candidate not in taken, or -1.
func Choose(candidates [constants.CandidateCount]models.Position, taken map[models.Position]struct{}) int {
	for i, c := range candidates {
		if _, ok := taken[c]; !ok {
			return i
		}
	}
	return -1
}

// Resolver moves agents to free cells.
type Resolver struct {
	// Neighbors supplies the agents whose positions block candidates.
	Neighbors neighbor.Query

	// Radius is passed to the neighbor query; zero means constants.NeighborRadius.
	Radius int

	// Decisions, when non-nil, receives one entry per resolution.
	Decisions *logging.DecisionLogger
}

// NewResolver creates a Resolver over q.
func NewResolver(q neighbor.Query, decisions *logging.DecisionLogger) *Resolver {
	return &Resolver{Neighbors: q, Radius: constants.NeighborRadius, Decisions: decisions}
}

// Move commits the first free candidate for a and returns it with true. When
// every candidate is occupied a keeps its position and Move returns false.
// The agent's desired position must already be computed.
func (r *Resolver) Move(a *agent.Agent) (models.Position, bool) {
	radius := r.Radius
	if radius == 0 {
		radius = constants.NeighborRadius
	}

	current := a.Position()
	taken := Occupied(r.Neighbors.Neighbors(current.X, current.Y, radius))
	candidates := Candidates(current, a.DesiredPosition())
	choice := Choose(candidates, taken)

	if r.Decisions != nil {
		r.Decisions.Log(map[string]any{
			"event":      "resolve",
			"from":       current.String(),
			"desired":    candidates[0].String(),
			"candidate":  choice,
			"neighbors":  len(taken),
			"stationary": choice < 0,
		})
	}

	if choice < 0 {
		return current, false
	}
	a.SetPosition(candidates[choice])
	return candidates[choice], true
}
