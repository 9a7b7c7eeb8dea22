package sim

import (
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// BatchRunner splits homogeneous per-agent work across a fixed set of
// workers and joins before returning, so every Run call is an explicit
// synchronization point in the tick pipeline. Each worker owns a private
// rand stream seeded from the world seed, safe to use from inside batch
// functions without locking.
type BatchRunner struct {
	workers int
	rngs    []*rand.Rand
}

// NewBatchRunner creates a runner with the given worker count (minimum 1).
func NewBatchRunner(workers int, seed int64) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	rngs := make([]*rand.Rand, workers)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(seed + int64(i)*7919)) // #nosec G404 -- simulation only
	}
	return &BatchRunner{workers: workers, rngs: rngs}
}

// Workers returns the worker count.
func (br *BatchRunner) Workers() int {
	return br.workers
}

// RNG returns the rand stream owned by the given worker.
func (br *BatchRunner) RNG(worker int) *rand.Rand {
	return br.rngs[worker]
}

// Run splits [0, n) into contiguous chunks, one per worker, and blocks until
// all chunks complete. fn must only write state owned by its own range (or
// per-worker shards); cross-agent reads go through the previous tick's
// snapshots.
func (br *BatchRunner) Run(n int, fn func(worker, start, end int)) {
	if n <= 0 {
		return
	}
	chunk := (n + br.workers - 1) / br.workers
	var g errgroup.Group
	for w := 0; w < br.workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		worker := w
		g.Go(func() error {
			fn(worker, start, end)
			return nil
		})
	}
	// Workers never return errors; Wait is purely the join point.
	_ = g.Wait()
}
