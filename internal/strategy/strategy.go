// Package strategy provides the interchangeable algorithms that advance every
// agent by one tick: compute the desired position, then commit it.
//
// All strategies produce identical positions for identical input. The parallel
// variants rely on disjoint-write partitioning: each worker receives its own
// sub-slice of the agent collection and is the only writer of those agents for
// the duration of Run. A single agent's work is never split between workers.
package strategy

import (
	"fmt"
	"strings"

	"github.com/robertpaananen/llpp/internal/agent"
)

// Kind names an execution strategy.
type Kind string

const (
	// KindSequential processes agents one after another in index order.
	KindSequential Kind = "sequential"

	// KindParallel schedules contiguous chunks on a bounded worker pool.
	KindParallel Kind = "parallel"

	// KindThreads splits agents into static blocks, one goroutine per block.
	KindThreads Kind = "threads"

	// KindVector processes agents in fixed-width lane batches.
	KindVector Kind = "vector"
)

// Kinds lists every strategy in a stable order.
var Kinds = []Kind{KindSequential, KindParallel, KindThreads, KindVector}

// Valid returns true if the kind is a recognized value.
func (k Kind) Valid() bool {
	switch k {
	case KindSequential, KindParallel, KindThreads, KindVector:
		return true
	}
	return false
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind maps a strategy name to a Kind. Matching is case-insensitive and
// accepts the historical aliases "seq", "omp", "pthread" and "simd".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "seq":
		return KindSequential, nil
	case "parallel", "omp":
		return KindParallel, nil
	case "threads", "pthread":
		return KindThreads, nil
	case "vector", "simd":
		return KindVector, nil
	}
	return "", fmt.Errorf("unknown strategy %q (valid: sequential, parallel, threads, vector)", s)
}

// Strategy advances a collection of agents by one tick.
type Strategy interface {
	// Name identifies the strategy in logs and traces.
	Name() string

	// Run computes and commits the next position of every agent.
	Run(agents []*agent.Agent)
}

// New builds the strategy for kind. workers bounds the concurrency of the
// parallel and threads strategies; zero selects their default.
func New(kind Kind, workers int) (Strategy, error) {
	if workers < 0 {
		return nil, fmt.Errorf("workers must be non-negative, got %d", workers)
	}
	switch kind {
	case KindSequential:
		return Sequential{}, nil
	case KindParallel:
		return NewDataParallel(workers), nil
	case KindThreads:
		return NewThreadPartition(workers), nil
	case KindVector:
		return VectorBatch{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", kind)
}

// advance is the per-agent unit of work shared by every strategy.
func advance(a *agent.Agent) {
	a.ComputeNextDesiredPosition()
	a.Commit()
}

// advanceAll runs advance over a slice in index order.
func advanceAll(agents []*agent.Agent) {
	for _, a := range agents {
		advance(a)
	}
}
