// Package simulation runs scenarios under one or more execution strategies
// and checks that they agree.
//
// The runner exercises the real Model, strategies and collision resolver.
// Every run starts from a fresh Build of the scenario, so strategies are
// compared from identical initial state. Each snapshot holds the positions
// after a tick, with snapshot 0 the initial positions.
//
// Usage:
//
//	func TestCrossingEquivalence(t *testing.T) {
//	    r := simulation.NewRunner()
//	    cmp, err := r.Compare(scenario.Generate(64, 1), strategy.Kinds, model.ModeDirect, 100)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    simulation.AssertEquivalent(t, cmp)
//	}
package simulation
