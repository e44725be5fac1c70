package sqlutil

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run executes fn inside a pgx transaction at the given isolation level.
// If fn returns an error the tx rolls back, else it commits.
func Run(ctx context.Context, pool *pgxpool.Pool, iso pgx.TxIsoLevel, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// RunSerializable retries fn on serialization conflicts (SQLSTATE 40001) and
// deadlocks (40P01), with exponential backoff up to maxAttempts. Any other
// error, including business-rule failures from fn, returns immediately.
func RunSerializable(ctx context.Context, pool *pgxpool.Pool, maxAttempts int, fn func(tx pgx.Tx) error) error {
	delay := 75 * time.Millisecond
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = Run(ctx, pool, pgx.Serializable, fn)
		if err == nil || !IsSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		if delay < 1200*time.Millisecond {
			delay *= 2
		}
	}
	return err
}

// IsSerializationError reports whether err is a conflict the caller may
// safely retry: a serialization failure or a deadlock abort.
func IsSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

// IsUniqueViolation reports whether err is a unique-constraint violation,
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
