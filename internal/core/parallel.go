package core

import (
	"runtime"
	"sync"
)

// ParallelFor executes fn over [0, n) split into contiguous chunks, one per
// worker, and joins before returning. Chunks never overlap, so fn may mutate
// per-index data without locking.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelMin reduces candidate(i) over [0, n) to its minimum. Each worker
// keeps a chunk-local minimum; the locals are combined serially afterwards.
// Minimum is associative and commutative, so the result is identical for any
// chunking and any worker count.
func ParallelMin[T Float](n, minChunk int, identity T, candidate func(i int) T) T {
	numWorkers := runtime.GOMAXPROCS(0)
	workers := numWorkers
	if n <= minChunk || workers <= 1 {
		workers = 1
	} else if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	locals := make([]T, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(w, s, e int) {
			defer wg.Done()
			local := identity
			for i := s; i < e; i++ {
				if c := candidate(i); c < local {
					local = c
				}
			}
			locals[w] = local
		}(w, start, end)
	}

	wg.Wait()

	min := identity
	for _, local := range locals {
		if local < min {
			min = local
		}
	}
	return min
}
