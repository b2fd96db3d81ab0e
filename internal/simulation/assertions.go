package simulation

import (
	"testing"

	"github.com/robertpaananen/llpp/internal/agent"
	"github.com/robertpaananen/llpp/internal/models"
)

// AssertEquivalent asserts that every strategy in the comparison produced the
// same positions as the reference at every tick.
func AssertEquivalent(t testing.TB, cmp *Comparison) {
	t.Helper()
	for _, mm := range cmp.Mismatches {
		t.Errorf("AssertEquivalent: %s", mm)
	}
}

// AssertNoSharedCells asserts that no two agents occupy the same cell after
// any tick of the run.
func AssertNoSharedCells(t testing.TB, result *Result) {
	t.Helper()
	for tick, snap := range result.Snapshots {
		seen := make(map[models.Position]int, len(snap))
		for i, p := range snap {
			if j, ok := seen[p]; ok {
				t.Errorf("AssertNoSharedCells: tick %d: agents %d and %d share %s", tick, j, i, p)
				return
			}
			seen[p] = i
		}
	}
}

// AssertStepped asserts that each agent computed its desired position exactly
// want times.
func AssertStepped(t testing.TB, agents []*agent.Agent, want int) {
	t.Helper()
	for i, a := range agents {
		if a.Steps() != want {
			t.Errorf("AssertStepped: agent %d stepped %d times, want %d", i, a.Steps(), want)
		}
	}
}

// AssertResultStepped is AssertStepped over the step counts of a finished run.
func AssertResultStepped(t testing.TB, result *Result, want int) {
	t.Helper()
	for i, n := range result.Steps {
		if n != want {
			t.Errorf("AssertResultStepped: agent %d stepped %d times, want %d", i, n, want)
		}
	}
}

// AssertMoved asserts that at least one agent changed position during the run.
func AssertMoved(t testing.TB, result *Result) {
	t.Helper()
	if len(result.Snapshots) < 2 {
		t.Errorf("AssertMoved: run has %d snapshots", len(result.Snapshots))
		return
	}
	first, last := result.Snapshots[0], result.Final()
	for i := range first {
		if first[i] != last[i] {
			return
		}
	}
	t.Errorf("AssertMoved: no agent moved in %d ticks", result.Ticks())
}
