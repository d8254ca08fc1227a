package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when a draft or patch fails validation before
// any storage mutation.
var ErrInvalidInput = errors.New("record: invalid input")

// ErrDuplicate is returned by Create when a record with the same
// (source, source_id) already exists.
var ErrDuplicate = errors.New("record: record already exists")

// ErrNotFound is returned when the logical key resolves to no row.
var ErrNotFound = errors.New("record: not found")

// ErrDecode is returned when a persisted score breakdown cannot be decoded.
var ErrDecode = errors.New("record: corrupt score breakdown")

// ErrUnavailable is returned when the backing engine cannot serve: the
// database cannot be opened or initialised, a connection is gone, or a
// write stayed busy past every retry.
var ErrUnavailable = errors.New("record: storage unavailable")

// asStoreErr passes the package's own sentinels through untouched and
// wraps anything else — driver failures, closed connections, busy-retry
// exhaustion — in ErrUnavailable, so every failure path stays
// errors.Is-matchable.
func asStoreErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDecode),
		errors.Is(err, ErrUnavailable):
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// isUniqueViolation reports whether err is an SQLite UNIQUE constraint
// failure. modernc.org/sqlite surfaces these as plain error strings.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
