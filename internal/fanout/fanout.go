// Package fanout runs a function over many inputs concurrently and collects
// every outcome. It never abandons the join early: each input gets a result,
// success or failure, in input order.
package fanout

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Settle calls work for every input concurrently and returns one result per
// input, in input order. A positive limit bounds the number of calls in
// flight; zero or less means unbounded. Inputs not yet started when ctx is
// cancelled settle with ctx.Err().
func Settle[T, R any](ctx context.Context, inputs []T, limit int,
	work func(context.Context, T) (R, error)) []fn.Result[R] {

	results := make([]fn.Result[R], len(inputs))
	if len(inputs) == 0 {
		return results
	}

	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(idx int, in T) {
			defer wg.Done()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()

				case <-ctx.Done():
					results[idx] = fn.Err[R](ctx.Err())
					return
				}
			}

			val, err := work(ctx, in)
			if err != nil {
				results[idx] = fn.Err[R](err)
				return
			}
			results[idx] = fn.Ok(val)
		}(i, in)
	}
	wg.Wait()

	return results
}

// CountFailures returns the number of failed results.
func CountFailures[R any](results []fn.Result[R]) int {
	var n int
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			n++
		}
	}

	return n
}

// FirstError returns the first error in input order, or nil if all
// succeeded.
func FirstError[R any](results []fn.Result[R]) error {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return err
		}
	}

	return nil
}
