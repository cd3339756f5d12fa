package integrity

import (
	"context"
	"fmt"

	"content_integrity/internal/pipeline"
)

// BatchResult pairs a request label with its report or error.
type BatchResult struct {
	Label  string
	Report Report
	Err    error
}

// CheckAll checks every request on a pool of workers. Results keep the order of reqs;
// the returned errors are the per-item failures, each prefixed with its label.
func (c *Checker) CheckAll(ctx context.Context, reqs []Request, workers int) ([]BatchResult, []error) {
	results := make([]BatchResult, len(reqs))
	idx := make([]int, len(reqs))
	for i := range reqs {
		idx[i] = i
		results[i].Label = reqs[i].Label
	}
	errs := pipeline.Process(ctx, idx, workers, func(ctx context.Context, i int) error {
		report, err := c.Check(ctx, reqs[i])
		if err != nil {
			results[i].Err = err
			return fmt.Errorf("%s: %w", reqs[i].Label, err)
		}
		results[i].Report = report
		return nil
	})
	return results, errs
}
