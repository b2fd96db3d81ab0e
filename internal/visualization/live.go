package visualization

import (
	"sync"

	"github.com/robertpaananen/llpp/internal/models"
)

// Live holds the latest snapshot of a running model. It satisfies
// model.Observer and is safe for concurrent readers.
type Live struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewLive creates a Live seeded with the initial state.
func NewLive(strategy, mode string, initial []models.Position, waypoints []*models.Waypoint) *Live {
	return &Live{snap: Snapshot{
		Strategy:  strategy,
		Mode:      mode,
		Agents:    initial,
		Waypoints: waypoints,
	}}
}

// ObserveTick replaces the snapshot.
func (l *Live) ObserveTick(tick int, positions []models.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.Tick = tick
	l.snap.Agents = positions
	return nil
}

// Snapshot returns the latest snapshot.
func (l *Live) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}
