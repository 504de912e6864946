// Package parallel provides the worker pool behind the pipeline's
// data-parallel inner loops: per-feature split search in the booster and
// per-fold cross-validation.
//
// Results are always returned in input order, so a reduction over them is
// deterministic regardless of the number of workers.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. A non-positive size means one
// worker per CPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool fans out to.
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// ProcessIndexed executes work items in parallel while preserving order.
// Items not started before the pool is closed keep the zero value of R.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	results := make([]R, len(items))

	// Not worth the goroutines
	if wp.numWorkers == 1 || len(items) == 1 {
		for i, item := range items {
			if wp.ctx.Err() != nil {
				break
			}
			results[i] = worker(i, item)
		}
		return results
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	for i, item := range items {
		itemCh <- indexedItem[T]{index: i, value: item}
	}
	close(itemCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// ProcessRange runs worker for every index in [0, n) and returns the results
// in index order.
func ProcessRange[R any](wp *WorkerPool, n int, worker func(int) R) []R {
	if n <= 0 {
		return nil
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return ProcessIndexed(wp, indices, func(_ int, i int) R {
		return worker(i)
	})
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
