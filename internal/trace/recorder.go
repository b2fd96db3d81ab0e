package trace

import (
	"context"

	"github.com/robertpaananen/llpp/internal/models"
)

// Recorder writes the ticks of one run to a Store. It satisfies
// model.Observer.
type Recorder struct {
	ctx   context.Context
	store *Store
	runID string
}

// NewRecorder creates a run record holding the initial positions and returns
// a Recorder for its subsequent ticks.
func (s *Store) NewRecorder(ctx context.Context, scenario, strategy, mode string, initial []models.Position) (*Recorder, error) {
	id, err := s.createRun(ctx, scenario, strategy, mode, initial)
	if err != nil {
		return nil, err
	}
	return &Recorder{ctx: ctx, store: s, runID: id}, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// ObserveTick stores the positions after tick.
func (r *Recorder) ObserveTick(tick int, positions []models.Position) error {
	return r.store.appendTick(r.ctx, r.runID, tick, positions)
}
