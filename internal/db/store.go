package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	prand "math/rand"
	"time"
)

const (
	// DefaultNumTxRetries is the number of attempts for a transaction that
	// keeps failing with a busy error.
	DefaultNumTxRetries = 10

	// DefaultInitialRetryDelay is the base retry delay. The actual delay
	// is randomised between 50% and 150% of it and doubled per attempt.
	DefaultInitialRetryDelay = 40 * time.Millisecond

	// DefaultMaxRetryDelay caps the retry delay.
	DefaultMaxRetryDelay = 3 * time.Second
)

// txOptions controls transaction retries.
type txOptions struct {
	numRetries        int
	initialRetryDelay time.Duration
	maxRetryDelay     time.Duration
}

func defaultTxOptions() txOptions {
	return txOptions{
		numRetries:        DefaultNumTxRetries,
		initialRetryDelay: DefaultInitialRetryDelay,
		maxRetryDelay:     DefaultMaxRetryDelay,
	}
}

// randRetryDelay returns a random delay between 50% and 150% of the initial
// delay, doubled for each attempt and capped at the max.
func (t txOptions) randRetryDelay(attempt int) time.Duration {
	halfDelay := t.initialRetryDelay / 2
	randDelay := prand.Int63n(int64(t.initialRetryDelay)) //nolint:gosec

	initialDelay := halfDelay + time.Duration(randDelay)
	if attempt == 0 {
		return initialDelay
	}

	// Limit the power to 32 to avoid overflows.
	factor := time.Duration(math.Pow(2, math.Min(float64(attempt), 32)))
	//nolint:durationcheck
	actualDelay := initialDelay * factor

	if actualDelay > t.maxRetryDelay {
		return t.maxRetryDelay
	}

	return actualDelay
}

// StoreOption adjusts a Store.
type StoreOption func(*txOptions)

// WithTxRetries sets how many times a busy transaction is attempted.
func WithTxRetries(numRetries int) StoreOption {
	return func(o *txOptions) {
		o.numRetries = numRetries
	}
}

// WithTxRetryDelay sets the base retry delay.
func WithTxRetryDelay(delay time.Duration) StoreOption {
	return func(o *txOptions) {
		o.initialRetryDelay = delay
	}
}

// Store wraps the cache database.
type Store struct {
	db   *sql.DB
	log  *slog.Logger
	opts txOptions
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB, log *slog.Logger, opts ...StoreOption) *Store {
	if log == nil {
		log = slog.Default()
	}

	txOpts := defaultTxOptions()
	for _, opt := range opts {
		opt(&txOpts)
	}

	return &Store{
		db:   db,
		log:  log,
		opts: txOpts,
	}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ExecTx runs body in a transaction, committing on success and rolling back
// on error. Busy errors restart the whole transaction after a randomised
// backoff.
func (s *Store) ExecTx(ctx context.Context, readOnly bool,
	body func(*sql.Tx) error) error {

	waitBeforeRetry := func(attempt int) error {
		delay := s.opts.randRetryDelay(attempt)

		s.log.DebugContext(ctx, "Retrying busy transaction",
			"attempt_number", attempt,
			"delay", delay,
		)

		select {
		case <-time.After(delay):
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for i := 0; i < s.opts.numRetries; i++ {
		err := s.execOnce(ctx, readOnly, body)
		if err == nil {
			return nil
		}
		if !IsBusyError(err) {
			return err
		}

		if err := waitBeforeRetry(i); err != nil {
			return err
		}
	}

	return ErrRetriesExceeded
}

func (s *Store) execOnce(ctx context.Context, readOnly bool,
	body func(*sql.Tx) error) error {

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return MapSQLError(err)
	}

	// Rollback is a no-op after a successful commit.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := body(tx); err != nil {
		return MapSQLError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w",
			MapSQLError(err))
	}

	return nil
}
