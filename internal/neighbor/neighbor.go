// Package neighbor answers "which agents are near this cell" queries for
// collision resolution.
package neighbor

import "github.com/robertpaananen/llpp/internal/agent"

// Query returns the agents considered to be within radius of (x, y).
// Implementations may over-report: callers only use the result to build the
// set of occupied cells, so extra agents never change the outcome.
type Query interface {
	Neighbors(x, y, radius int) []*agent.Agent
}

// Population is a Query that returns every agent, whatever the arguments.
// It is a placeholder for a spatial index and costs O(n) per query.
// TODO: replace with a grid index once move runs every tick on large scenarios.
type Population []*agent.Agent

// Neighbors implements Query. The returned slice is the population itself and
// must not be modified.
func (p Population) Neighbors(x, y, radius int) []*agent.Agent {
	return p
}
