package util

import (
	"context"
	"errors"
	"sync"
)

// Parallel runs fn over inputs on at most workerLimit goroutines. Every input
// is visited; fn gets the input's index so results can be written into a
// pre-sized slice without locking. The errors of all failed calls are joined.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, fn func(ctx context.Context, i int, item T) error) error {
	if len(inputs) == 0 {
		return nil
	}

	if workerLimit <= 0 {
		workerLimit = 1
	}
	workerLimit = min(workerLimit, len(inputs))

	tasks := make(chan int)
	errs := make([]error, len(inputs))

	// workers
	wg := sync.WaitGroup{}
	for range workerLimit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				errs[i] = fn(ctx, i, inputs[i])
			}
		}()
	}

	// feed tasks
	go func() {
		defer close(tasks)
		for i := range inputs {
			select {
			case <-ctx.Done():
				return
			case tasks <- i:
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
