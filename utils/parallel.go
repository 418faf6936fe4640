// Package utils contains shared helpers for the rgbd packages.
package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// RowWorkFunc processes the rows [from, to) of a frame.
type RowWorkFunc func(from, to int)

// GroupWorkParallel splits totalSize work items into contiguous bands, one per worker, and
// runs work on each band concurrently. Bands never overlap and together cover [0, totalSize).
// It returns once every band is done, with the context error if ctx was already done, or with
// an error describing every band that panicked.
func GroupWorkParallel(ctx context.Context, totalSize int, work RowWorkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if totalSize <= 0 {
		return nil
	}
	numGroups := ParallelFactor
	if numGroups > totalSize {
		numGroups = totalSize
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	var wait sync.WaitGroup
	var panicErr error
	var panicMu sync.Mutex
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		from := groupSize * groupNum
		to := from + groupSize
		if groupNum == numGroups-1 {
			to += extra
		}
		go func() {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					panicMu.Lock()
					panicErr = multierr.Append(panicErr,
						fmt.Errorf("got panic processing rows [%d, %d): %v", from, to, thePanic))
					panicMu.Unlock()
				}
				wait.Done()
			}()
			work(from, to)
		}()
	}
	wait.Wait()
	return panicErr
}

// ParallelForEachRow calls f for every row y in [0, height) using GroupWorkParallel.
// Rows are handed out in bands so f must not depend on rows outside its own. A panic in f is
// raised again on the calling goroutine once every band is done.
func ParallelForEachRow(height int, f func(y int)) {
	if err := GroupWorkParallel(context.Background(), height, func(from, to int) {
		for y := from; y < to; y++ {
			f(y)
		}
	}); err != nil {
		panic(err)
	}
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}
