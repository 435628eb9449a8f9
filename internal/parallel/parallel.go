// Package parallel provides chunked parallel loops for the matrix engine.
//
// Every index is visited by exactly one goroutine and the body for a given
// index always runs the same sequence of operations, so results do not
// depend on the number of workers.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum units of work per goroutine to avoid overhead.
}

// DefaultConfig returns defaults sized to the host's logical cores.
func DefaultConfig() Config {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 8192,
	}
}

// Sequential returns a Config that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	ForCost(n, 1, f, cfg)
}

// ForCost is For where every index stands for cost units of work.
// The MinChunkSize threshold is applied to n*cost, which lets callers
// parallelize a handful of expensive rows (dot products) while keeping
// cheap elementwise passes over small buffers sequential.
func ForCost(n, cost int, f func(i int), cfg Config) {
	if n <= 0 {
		return
	}
	if cost < 1 {
		cost = 1
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2 || n*cost < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	minItems := max((cfg.MinChunkSize+cost-1)/cost, 1)
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, minItems)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
