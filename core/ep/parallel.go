package ep

import (
	"runtime"
	"sync"
)

// Rows below this count are processed inline; goroutine fan-out costs more
// than the quadrature work it would split.
const parallelThreshold = 256

// parallelFor splits [0, n) into contiguous chunks and runs fn on each.
// Chunks are disjoint, so fn must only write state owned by its own rows;
// under that contract the result is identical to the sequential run.
func parallelFor(n int, fn func(lo, hi int)) {
	if n < parallelThreshold {
		fn(0, n)
		return
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
