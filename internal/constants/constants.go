// Package constants provides named constants used throughout the llpp codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Execution constants
const (
	// VectorWidth is the number of lanes processed together by the vector strategy.
	// It mirrors a 128-bit register holding four 32-bit coordinates.
	VectorWidth = 4

	// DefaultThreads is the thread count used by the partitioned strategy when
	// none is configured.
	DefaultThreads = 4
)

// Collision resolution constants
const (
	// NeighborRadius is the search distance used when collecting the positions
	// that may block an agent's next step. Every candidate lies within two cells
	// of the agent's current position.
	NeighborRadius = 2

	// CandidateCount is the number of prioritized positions considered per move.
	CandidateCount = 3
)

// Simulation defaults
const (
	// DefaultTicks is the number of ticks a run performs when not configured.
	DefaultTicks = 100

	// DefaultGeneratedAgents is the population size of a generated scenario.
	DefaultGeneratedAgents = 64

	// DefaultSeed seeds scenario spawning when a scenario file omits it.
	DefaultSeed = 1
)

// Storage layout
const (
	// DirName is the per-user and per-project state directory.
	DirName = ".llpp"

	// TraceDBName is the SQLite file holding recorded runs.
	TraceDBName = "trace.db"

	// DecisionLogName is the JSONL file receiving collision decisions.
	DecisionLogName = "decisions.jsonl"
)
