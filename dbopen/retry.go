package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBusy is returned once every retry of a write has hit SQLITE_BUSY.
// Callers treat it as the engine being unavailable, not as a data error.
var ErrBusy = errors.New("dbopen: database busy")

// retryPolicy controls how busy writes are retried. Attempt i sleeps
// i*backoff before trying again (linear, matching the busy_timeout scale).
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func defaultPolicy() retryPolicy {
	return retryPolicy{attempts: 3, backoff: 100 * time.Millisecond}
}

// RetryOption customises the busy-retry behaviour of RunTx.
type RetryOption func(*retryPolicy)

// WithAttempts sets how many times a busy transaction is attempted.
// Default: 3.
func WithAttempts(n int) RetryOption {
	return func(p *retryPolicy) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithBackoff sets the base backoff between attempts. Default: 100ms.
func WithBackoff(d time.Duration) RetryOption {
	return func(p *retryPolicy) {
		if d > 0 {
			p.backoff = d
		}
	}
}

// IsBusy reports whether err indicates an SQLite BUSY condition, either a
// raw driver error or an ErrBusy produced by retry exhaustion.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBusy) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// RunTx executes fn inside a transaction, retrying while the engine
// reports busy. fn errors that are not busy conditions pass through
// unchanged; exhausting the retries yields ErrBusy.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error, opts ...RetryOption) error {
	p := defaultPolicy()
	for _, o := range opts {
		o(&p)
	}
	return retryBusy(ctx, p, func() error { return runOnce(ctx, db, fn) })
}

func runOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}

// Exec executes a single statement with the default busy-retry policy.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryBusy(ctx, defaultPolicy(), func() error {
		var execErr error
		res, execErr = db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func retryBusy(ctx context.Context, p retryPolicy, op func() error) error {
	var last error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		last = op()
		if last == nil {
			return nil
		}
		if !IsBusy(last) {
			return last
		}
		if attempt == p.attempts {
			break
		}
		if err := sleepCtx(ctx, time.Duration(attempt)*p.backoff); err != nil {
			return fmt.Errorf("dbopen: retry interrupted: %w", err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrBusy, p.attempts, last)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
