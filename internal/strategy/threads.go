package strategy

import (
	"sync"

	"github.com/robertpaananen/llpp/internal/agent"
	"github.com/robertpaananen/llpp/internal/constants"
)

// ThreadPartition divides agents into static contiguous blocks and starts one
// goroutine per block.
type ThreadPartition struct {
	Threads int
}

// NewThreadPartition creates a partitioned strategy. threads <= 0 uses
// constants.DefaultThreads.
func NewThreadPartition(threads int) ThreadPartition {
	if threads <= 0 {
		threads = constants.DefaultThreads
	}
	return ThreadPartition{Threads: threads}
}

// Name implements Strategy.
func (ThreadPartition) Name() string { return string(KindThreads) }

// Block is a half-open index range [Start, End).
type Block struct {
	Start int
	End   int
}

// Len returns the number of indices in the block.
func (b Block) Len() int { return b.End - b.Start }

// Partition splits n indices into t blocks of n/t indices, followed by a tail
// block holding the n%t remainder when it is non-zero. t is clamped to [1, n].
// The blocks are contiguous, non-overlapping and cover [0, n) exactly.
func Partition(n, t int) []Block {
	if n <= 0 {
		return nil
	}
	t = max(1, min(t, n))

	work := n / t
	blocks := make([]Block, 0, t+1)
	for i := 0; i < t; i++ {
		blocks = append(blocks, Block{Start: i * work, End: (i + 1) * work})
	}
	if rem := n % t; rem > 0 {
		blocks = append(blocks, Block{Start: n - rem, End: n})
	}
	return blocks
}

// Run implements Strategy.
func (p ThreadPartition) Run(agents []*agent.Agent) {
	blocks := Partition(len(agents), p.Threads)

	var wg sync.WaitGroup
	for _, b := range blocks {
		part := agents[b.Start:b.End:b.End]
		wg.Add(1)
		go func() {
			defer wg.Done()
			advanceAll(part)
		}()
	}
	wg.Wait()
}
