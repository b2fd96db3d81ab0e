// Package model owns a simulation run: the agent collection, the waypoints
// they travel between, and the execution strategy chosen at setup.
//
// A Model is not safe for concurrent use. Tick must not be called from more
// than one goroutine; concurrency happens inside the strategy.
package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robertpaananen/llpp/internal/agent"
	"github.com/robertpaananen/llpp/internal/collision"
	"github.com/robertpaananen/llpp/internal/logging"
	"github.com/robertpaananen/llpp/internal/models"
	"github.com/robertpaananen/llpp/internal/neighbor"
	"github.com/robertpaananen/llpp/internal/strategy"
)

// Mode selects how a tick turns desired positions into committed ones.
type Mode string

const (
	// ModeDirect commits every desired position using the configured strategy.
	ModeDirect Mode = "direct"

	// ModeResolve moves agents one at a time through the collision resolver.
	ModeResolve Mode = "resolve"
)

// ParseMode maps a mode name to a Mode. The empty string selects ModeDirect.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeResolve:
		return ModeResolve, nil
	}
	return "", fmt.Errorf("unknown mode %q (valid: direct, resolve)", s)
}

// Observer is notified after every tick.
type Observer interface {
	ObserveTick(tick int, positions []models.Position) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(tick int, positions []models.Position) error

// ObserveTick calls f.
func (f ObserverFunc) ObserveTick(tick int, positions []models.Position) error {
	return f(tick, positions)
}

// Config holds the setup options of a Model.
type Config struct {
	Strategy  strategy.Kind
	Workers   int
	Mode      Mode
	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
	Observers []Observer
}

// Model is the orchestrator of a run.
type Model struct {
	agents       []*agent.Agent
	destinations []*models.Waypoint
	strategy     strategy.Strategy
	mode         Mode
	resolver     *collision.Resolver
	positions    []models.Position
	ticks        int
	logger       *slog.Logger
	observers    []Observer
	observerErrs int
	observerErr  error
}

// Setup creates a Model over agents and destinations. The strategy is built
// once here; an unknown kind or mode is returned as an error.
func Setup(agents []*agent.Agent, destinations []*models.Waypoint, cfg Config) (*Model, error) {
	kind := cfg.Strategy
	if kind == "" {
		kind = strategy.KindSequential
	}
	s, err := strategy.New(kind, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("building strategy: %w", err)
	}

	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := &Model{
		agents:       agents,
		destinations: destinations,
		strategy:     s,
		mode:         mode,
		positions:    make([]models.Position, len(agents)),
		logger:       logger,
		observers:    cfg.Observers,
	}
	if mode == ModeResolve {
		m.resolver = collision.NewResolver(neighbor.Population(agents), cfg.Decisions)
	}
	m.snapshot()

	logger.Info("model setup",
		"agents", len(agents),
		"destinations", len(destinations),
		"strategy", s.Name(),
		"mode", string(mode))

	return m, nil
}

// Tick advances every agent by one step and notifies observers.
func (m *Model) Tick() {
	switch m.mode {
	case ModeResolve:
		m.resolveAll()
	default:
		m.strategy.Run(m.agents)
	}

	m.snapshot()
	m.ticks++

	m.logger.Debug("tick", "tick", m.ticks, "strategy", m.strategy.Name())
	if m.logger.Enabled(context.Background(), logging.LevelTrace) {
		for i, p := range m.positions {
			m.logger.Log(context.Background(), logging.LevelTrace, "position", "tick", m.ticks, "agent", i, "x", p.X, "y", p.Y)
		}
	}

	for _, o := range m.observers {
		if err := o.ObserveTick(m.ticks, m.Positions()); err != nil {
			m.logger.Warn("observer failed", "tick", m.ticks, "error", err)
			m.observerErrs++
			if m.observerErr == nil {
				m.observerErr = fmt.Errorf("tick %d: %w", m.ticks, err)
			}
		}
	}
}

// resolveAll moves agents in index order so each sees the moves already
// committed by agents before it.
func (m *Model) resolveAll() {
	for _, a := range m.agents {
		a.ComputeNextDesiredPosition()
		m.resolver.Move(a)
	}
}

func (m *Model) snapshot() {
	for i, a := range m.agents {
		m.positions[i] = a.Position()
	}
}

// Agents returns the agent collection. Indices are stable for the whole run.
func (m *Model) Agents() []*agent.Agent { return m.agents }

// Positions returns a copy of the positions after the last tick.
func (m *Model) Positions() []models.Position {
	out := make([]models.Position, len(m.positions))
	copy(out, m.positions)
	return out
}

// Destinations returns the waypoints of the run.
func (m *Model) Destinations() []*models.Waypoint { return m.destinations }

// Ticks returns the number of completed ticks.
func (m *Model) Ticks() int { return m.ticks }

// ObserverErrors returns how many observer notifications failed and the
// first failure. A failing observer never stops the run.
func (m *Model) ObserverErrors() (int, error) { return m.observerErrs, m.observerErr }

// StrategyName returns the name of the strategy chosen at setup.
func (m *Model) StrategyName() string { return m.strategy.Name() }

// Mode returns the tick mode chosen at setup.
func (m *Model) Mode() Mode { return m.mode }

// Close releases the agents and destinations. The Model must not be used
// afterwards.
func (m *Model) Close() {
	m.logger.Debug("model closed", "ticks", m.ticks)
	m.agents = nil
	m.destinations = nil
	m.positions = nil
	m.observers = nil
	m.resolver = nil
}
