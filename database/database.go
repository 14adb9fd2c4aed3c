// Package database provides support for access to the postgres database
// backing the product ledger, the cart store and the receipts.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrDBNotFound        = errors.New("not found")
	ErrDBDuplicatedEntry = errors.New("duplicated entry")
	ErrDBConflict        = errors.New("concurrent update conflict")
	ErrDBOutOfRange      = errors.New("value out of range")
)

const (
	uniqueViolation      = "23505"
	numericOutOfRange    = "22003"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

type Config struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:shop"`
	MaxIdleConns int    `conf:"default:10"`
	MaxOpenConns int    `conf:"default:25"`
	DisableTLS   bool   `conf:"default:true"`
}

func Open(cfg Config) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

// StatusCheck returns nil if it can successfully talk to the database. It
// retries until the context is done.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	var pingError error
	for attempts := 1; ; attempts++ {
		pingError = db.PingContext(ctx)
		if pingError == nil {
			break
		}
		select {
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	const q = `SELECT true`
	var tmp bool
	return db.QueryRowContext(ctx, q).Scan(&tmp)
}

// Transaction runs fn inside a single transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func Transaction(ctx context.Context, db *sqlx.DB, fn func(tx sqlx.ExtContext) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", MapError(err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback transaction: %v: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", MapError(err))
	}

	return nil
}

// NamedExecContext executes a named query and reports the number of
// affected rows.
func NamedExecContext(ctx context.Context, db sqlx.ExtContext, query string, data any) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, db, query, data)
	if err != nil {
		return 0, MapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// NamedQueryStruct runs a named query expected to return a single row.
func NamedQueryStruct(ctx context.Context, db sqlx.ExtContext, query string, data any, dest any) error {
	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		return MapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return MapError(err)
		}
		return ErrDBNotFound
	}

	if err := rows.StructScan(dest); err != nil {
		return err
	}
	return nil
}

// NamedQuerySlice runs a named query and appends every row to dest, which
// must be a pointer to a slice.
func NamedQuerySlice[T any](ctx context.Context, db sqlx.ExtContext, query string, data any, dest *[]T) error {
	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		return MapError(err)
	}
	defer rows.Close()

	var slice []T
	for rows.Next() {
		v := new(T)
		if err := rows.StructScan(v); err != nil {
			return err
		}
		slice = append(slice, *v)
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}

	*dest = slice
	return nil
}

// MapError translates driver errors into the package's sentinel errors.
func MapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDBNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", ErrDBDuplicatedEntry, pqErr.Constraint)
		case serializationFailure, deadlockDetected:
			return fmt.Errorf("%w: %s", ErrDBConflict, pqErr.Message)
		case numericOutOfRange:
			return fmt.Errorf("%w: %s", ErrDBOutOfRange, pqErr.Message)
		}
	}

	return err
}
