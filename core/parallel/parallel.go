// Package parallel provides helpers for splitting CPU-bound loops
// across cores. Forest construction, cross-validation folds, and
// neighbor queries all run through these.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items across the available CPU cores and runs fn
// on each contiguous range [start, end).
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeWithWorkers(items, runtime.NumCPU(), fn)
}

// ParallelizeWithWorkers is Parallelize with an explicit worker count.
// workers <= 0 falls back to the number of CPU cores.
func ParallelizeWithWorkers(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	// Ceiling division so every item lands in exactly one chunk.
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or
// below threshold, in parallel otherwise. Small inputs are not worth
// the goroutine overhead.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
