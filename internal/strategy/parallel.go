package strategy

import (
	"runtime"

	"github.com/robertpaananen/llpp/internal/agent"
	"golang.org/x/sync/errgroup"
)

// DataParallel splits the index range into contiguous chunks and runs them on
// a worker pool bounded by Workers. Chunks are smaller than one per worker so
// that faster workers pick up more of the load.
type DataParallel struct {
	Workers int
}

// chunksPerWorker controls how finely the index range is split.
const chunksPerWorker = 4

// NewDataParallel creates a data-parallel strategy. workers <= 0 uses
// runtime.GOMAXPROCS(0).
func NewDataParallel(workers int) DataParallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return DataParallel{Workers: workers}
}

// Name implements Strategy.
func (DataParallel) Name() string { return string(KindParallel) }

// Run implements Strategy.
func (p DataParallel) Run(agents []*agent.Agent) {
	n := len(agents)
	if n == 0 {
		return
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (n + workers*chunksPerWorker - 1) / (workers * chunksPerWorker)

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		part := agents[start:end:end]
		g.Go(func() error {
			advanceAll(part)
			return nil
		})
	}
	_ = g.Wait() // workers never fail
}
