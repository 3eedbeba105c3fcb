package db

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrRetriesExceeded is returned when a transaction is retried more
	// than the max allowed value without a success.
	ErrRetriesExceeded = errors.New("db tx retries exceeded")
)

// ErrBusyError marks a failure caused by another connection holding the
// database lock. Another process writing the same cache file is the usual
// cause; the transaction can simply be retried.
type ErrBusyError struct {
	DBError error
}

// Unwrap returns the wrapped error.
func (e *ErrBusyError) Unwrap() error {
	return e.DBError
}

// Error returns the error message.
func (e *ErrBusyError) Error() string {
	return fmt.Sprintf("database busy: %v", e.DBError)
}

// MapSQLError classifies sqlite errors. Busy and locked errors become
// *ErrBusyError; everything else is returned unchanged.
func MapSQLError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return &ErrBusyError{DBError: sqliteErr}

	default:
		return fmt.Errorf("sqlite error: %w", sqliteErr)
	}
}

// IsBusyError reports whether err is retryable lock contention.
func IsBusyError(err error) bool {
	var busy *ErrBusyError
	return errors.As(err, &busy)
}
