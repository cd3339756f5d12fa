package pipeline

import (
	"context"
	"runtime"
	"sync"
)

// Process runs fn over items on a fixed pool of workers and returns every non-nil
// error in completion order. Items not yet started when ctx is cancelled are skipped
// and reported as ctx.Err() once.
func Process[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) []error {
	if len(items) == 0 || fn == nil {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan T)
	errs := make(chan error, len(items)+1)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				if err := fn(ctx, item); err != nil {
					errs <- err
				}
			}
		}()
	}

feed:
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs <- err
			break
		}
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			break feed
		case jobs <- item:
		}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	out := make([]error, 0, len(errs))
	for err := range errs {
		out = append(out, err)
	}
	return out
}
