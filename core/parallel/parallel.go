// Package parallel splits index ranges across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Chunks divides [0, items) into at most workers contiguous ranges of
// near-equal size. workers <= 0 means runtime.NumCPU().
func Chunks(items, workers int) [][2]int {
	if items <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	chunkSize := (items + workers - 1) / workers
	chunks := make([][2]int, 0, workers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		chunks = append(chunks, [2]int{start, end})
	}
	return chunks
}

// Run calls fn once per chunk of [0, items) and waits for all calls. When
// items does not exceed threshold fn runs once on the calling goroutine.
// The first non-nil error is returned.
func Run(items, threshold int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		return fn(0, items)
	}

	chunks := Chunks(items, 0)
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		go func(i, s, e int) {
			defer wg.Done()
			errs[i] = fn(s, e)
		}(i, c[0], c[1])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
