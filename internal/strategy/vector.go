package strategy

import (
	"github.com/paulmach/orb"
	"github.com/robertpaananen/llpp/internal/agent"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/models"
)

// VectorBatch processes agents in batches of constants.VectorWidth lanes.
// Positions and targets of a batch are loaded into fixed-size lane arrays,
// desired positions are computed lane by lane with agent.Step and stored back.
// The final partial batch falls back to the scalar path.
type VectorBatch struct{}

// Name implements Strategy.
func (VectorBatch) Name() string { return string(KindVector) }

// lanes is the register file for one batch.
type lanes struct {
	x, y    [constants.VectorWidth]int
	target  [constants.VectorWidth]orb.Point
	live    [constants.VectorWidth]bool
	desired [constants.VectorWidth]models.Position
}

// Run implements Strategy.
func (VectorBatch) Run(agents []*agent.Agent) {
	const width = constants.VectorWidth

	var reg lanes
	n := len(agents)
	full := n - n%width

	for i := 0; i < full; i += width {
		batch := (*[width]*agent.Agent)(agents[i : i+width])
		reg.load(batch)
		reg.step()
		reg.store(batch)
	}

	// Remainder smaller than one batch.
	advanceAll(agents[full:])
}

// load copies positions into the lanes and selects each lane's target.
func (r *lanes) load(batch *[constants.VectorWidth]*agent.Agent) {
	for l, a := range batch {
		r.x[l] = a.X()
		r.y[l] = a.Y()
		r.target[l], r.live[l] = a.NextTarget()
	}
}

// step computes the desired position of every lane.
func (r *lanes) step() {
	for l := range r.desired {
		if !r.live[l] {
			r.desired[l] = models.Pos(r.x[l], r.y[l])
			continue
		}
		r.desired[l] = agent.Step(r.x[l], r.y[l], r.target[l])
	}
}

// store writes the lane results back and commits them.
func (r *lanes) store(batch *[constants.VectorWidth]*agent.Agent) {
	for l, a := range batch {
		a.SetDesired(r.desired[l])
		a.Commit()
	}
}
