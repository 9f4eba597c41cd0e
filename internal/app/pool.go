package app

import (
	"context"
	"sync"
)

const defaultWorkers = 4

// runUnits calls fn for every index in [0, n) on at most workers goroutines.
// Once ctx is done no further units start; units already started run on a
// context that ignores the cancellation so their writes are never cut short.
// It returns the indexes that never started.
func runUnits(ctx context.Context, workers, n int, fn func(ctx context.Context, i int)) []int {
	if workers <= 0 {
		workers = defaultWorkers
	}
	unitCtx := context.WithoutCancel(ctx)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var notStarted []int

	for i := 0; i < n; i++ {
		acquired := false
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case sem <- struct{}{}: // Acquire semaphore
				acquired = ctx.Err() == nil
				if !acquired {
					<-sem
				}
			}
		}
		if !acquired {
			for j := i; j < n; j++ {
				notStarted = append(notStarted, j)
			}
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer func() {
				<-sem // Release semaphore
				wg.Done()
			}()
			fn(unitCtx, idx)
		}(i)
	}

	wg.Wait()
	return notStarted
}
