package utils

import (
	"context"
	"sync"
)

// ParallelForEach executes fn for each item with at most workers goroutines.
// The returned slice holds one error per item, in item order. Items never
// started because ctx was cancelled get ctx.Err().
func ParallelForEach[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	started := make([]bool, len(items))
	taskChan := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				errs[idx] = fn(ctx, items[idx])
			}
		}()
	}

submit:
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break submit
		case taskChan <- i:
			started[i] = true
		}
	}
	close(taskChan)
	wg.Wait()

	for i, ok := range started {
		if !ok {
			errs[i] = ctx.Err()
		}
	}
	return errs
}

// FirstError returns the first non-nil error from a slice of errors
func FirstError(errors []error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

// CollectErrors collects all non-nil errors from a slice
func CollectErrors(errors []error) []error {
	var result []error
	for _, err := range errors {
		if err != nil {
			result = append(result, err)
		}
	}
	return result
}
