package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func double(_ context.Context, v int) (int, error) {
	return v * 2, nil
}

// values unpacks every successful result, in order.
func values(t *testing.T, results []fn.Result[int]) []int {
	t.Helper()

	var out []int
	for _, r := range results {
		if v, err := r.Unpack(); err == nil {
			out = append(out, v)
		}
	}

	return out
}

// TestSettleOrder checks results line up with inputs.
func TestSettleOrder(t *testing.T) {
	t.Parallel()

	results := Settle(
		context.Background(), []int{1, 2, 3, 4}, 0, double,
	)
	require.Equal(t, []int{2, 4, 6, 8}, values(t, results))
	require.NoError(t, FirstError(results))
	require.Zero(t, CountFailures(results))

	require.Empty(t, Settle(context.Background(), nil, 0, double))
}

// TestSettlePartialFailure checks failures are kept per input and do not
// stop the other calls.
func TestSettlePartialFailure(t *testing.T) {
	t.Parallel()

	errOdd := errors.New("odd input")
	var calls atomic.Int32
	results := Settle(
		context.Background(), []int{1, 2, 3, 4, 5}, 2,
		func(_ context.Context, v int) (int, error) {
			calls.Add(1)
			if v%2 == 1 {
				return 0, errOdd
			}

			return v, nil
		},
	)

	require.EqualValues(t, 5, calls.Load())
	require.Len(t, results, 5)
	require.Equal(t, 3, CountFailures(results))
	require.Equal(t, []int{2, 4}, values(t, results))
	require.ErrorIs(t, FirstError(results), errOdd)

	_, err := results[1].Unpack()
	require.NoError(t, err)
	_, err = results[2].Unpack()
	require.ErrorIs(t, err, errOdd)
}

// TestSettleLimit checks the in-flight bound is honoured.
func TestSettleLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	inputs := make([]int, 20)
	Settle(
		context.Background(), inputs, 3,
		func(_ context.Context, v int) (int, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)

			return v, nil
		},
	)

	require.LessOrEqual(t, peak.Load(), int32(3))
	require.Positive(t, peak.Load())
}

// TestSettleCancelled checks queued inputs settle with the context error.
func TestSettleCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Settle(ctx, []int{1, 2, 3}, 1,
		func(ctx context.Context, v int) (int, error) {
			return 0, ctx.Err()
		},
	)
	require.Equal(t, 3, CountFailures(results))
	require.ErrorIs(t, FirstError(results), context.Canceled)
}
