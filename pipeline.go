package narrow

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/akmonengine/narrow/shape"
)

// Pair is one pairwise query of a batch, typically produced by a broad phase.
type Pair struct {
	A, B shape.Placed
}

// ContactAll runs Contact on every pair with at most workers goroutines and
// returns the results in input order. A workers value below one uses
// GOMAXPROCS.
//
// The first failing pair cancels the batch and its error is returned,
// wrapped with the pair index. Cancelling ctx stops the workers between two
// pairs.
func ContactAll(ctx context.Context, pairs []Pair, workers int, cfg Config) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, len(pairs))
	err := task(ctx, workers, len(pairs), func(i int) error {
		res, err := Contact(pairs[i].A, pairs[i].B, cfg)
		if err != nil {
			return errors.Wrapf(err, "pair %d", i)
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// task splits [0, n) into one contiguous chunk per worker and calls fn on
// every index. Each worker checks ctx before every call.
func task(ctx context.Context, workersCount, n int, fn func(i int) error) error {
	if n == 0 {
		return ctx.Err()
	}
	if workersCount < 1 {
		workersCount = runtime.GOMAXPROCS(0)
	}
	workersCount = min(workersCount, n)
	chunkSize := (n + workersCount - 1) / workersCount

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workersCount)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
