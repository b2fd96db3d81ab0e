package strategy

import "github.com/robertpaananen/llpp/internal/agent"

// Sequential advances agents in index order on the calling goroutine.
type Sequential struct{}

// Name implements Strategy.
func (Sequential) Name() string { return string(KindSequential) }

// Run implements Strategy.
func (Sequential) Run(agents []*agent.Agent) {
	advanceAll(agents)
}
