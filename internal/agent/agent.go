// Package agent implements the per-agent state of the simulation: the current
// and desired grid positions and the waypoint queue that drives movement.
//
// Agents are independent while computing their desired position: the
// computation reads only the agent's own fields and its (read-only) waypoints.
// This is what allows the strategies in package strategy to run agents
// concurrently without locks, as long as each agent is handled by one worker.
package agent

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/robertpaananen/llpp/internal/models"
)

// Agent is a single moving entity.
type Agent struct {
	pos         models.Position
	desired     models.Position
	destination *models.Waypoint
	waypoints   []*models.Waypoint
	steps       int
}

// New creates an agent at (x, y). Its desired position starts equal to its
// current position.
func New(x, y int) *Agent {
	p := models.Pos(x, y)
	return &Agent{pos: p, desired: p}
}

// AddWaypoint appends w to the agent's waypoint queue.
func (a *Agent) AddWaypoint(w *models.Waypoint) {
	a.waypoints = append(a.waypoints, w)
}

// X returns the current x coordinate.
func (a *Agent) X() int { return a.pos.X }

// Y returns the current y coordinate.
func (a *Agent) Y() int { return a.pos.Y }

// Position returns the current position.
func (a *Agent) Position() models.Position { return a.pos }

// SetPosition moves the agent to p.
func (a *Agent) SetPosition(p models.Position) { a.pos = p }

// DesiredPosition returns the position computed by the last call to
// ComputeNextDesiredPosition.
func (a *Agent) DesiredPosition() models.Position { return a.desired }

// SetDesired overrides the desired position. Used by batch computations that
// evaluate Step outside the agent.
func (a *Agent) SetDesired(p models.Position) { a.desired = p }

// Destination returns the waypoint the agent is heading to, or nil.
func (a *Agent) Destination() *models.Waypoint { return a.destination }

// Waypoints returns the queued waypoints, excluding the current destination.
func (a *Agent) Waypoints() []*models.Waypoint { return a.waypoints }

// Steps returns how many times the desired position has been computed.
func (a *Agent) Steps() int { return a.steps }

// ComputeNextDesiredPosition advances the waypoint queue if needed and stores
// the next cell towards the destination as the desired position.
func (a *Agent) ComputeNextDesiredPosition() {
	target, ok := a.NextTarget()
	if !ok {
		a.desired = a.pos
		return
	}
	a.desired = Step(a.pos.X, a.pos.Y, target)
}

// NextTarget selects the destination for this tick and returns its center.
// When the current destination is reached (or none is set yet) and waypoints
// are queued, the old destination goes to the back of the queue and the front
// becomes the new destination. It counts as one desired-position computation.
func (a *Agent) NextTarget() (orb.Point, bool) {
	a.steps++

	reached := false
	if a.destination != nil {
		reached = a.destination.Reached(a.pos)
	}

	if (reached || a.destination == nil) && len(a.waypoints) > 0 {
		if a.destination != nil {
			a.waypoints = append(a.waypoints, a.destination)
		}
		a.destination = a.waypoints[0]
		a.waypoints = a.waypoints[1:]
	}

	if a.destination == nil {
		return orb.Point{}, false
	}
	return a.destination.Center, true
}

// Commit makes the desired position the current one.
func (a *Agent) Commit() {
	a.pos = a.desired
}

// Step returns the cell one unit step from (x, y) towards target, rounding
// half away from zero. A target equal to (x, y) yields (x, y).
func Step(x, y int, target orb.Point) models.Position {
	diffX := target.X() - float64(x)
	diffY := target.Y() - float64(y)
	length := math.Sqrt(diffX*diffX + diffY*diffY)
	if length == 0 {
		return models.Pos(x, y)
	}
	return models.Pos(
		int(math.Round(float64(x)+diffX/length)),
		int(math.Round(float64(y)+diffY/length)),
	)
}
