package repositories

import (
	"context"
	"errors"

	"tablekeep/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Database is a Querier that can open transactions.
type Database interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// withTx runs fn in a transaction, committing on success and rolling back on
// error.
func withTx(ctx context.Context, db Database, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return mapError(err, "")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = mapError(tx.Commit(ctx), "")
	}()
	return fn(tx)
}

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
)

// mapError converts driver errors into service error kinds. resource names the
// entity for not-found messages.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if resource == "" {
			resource = "record"
		}
		return common.NotFound(resource)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return common.WrapError(common.KindUnavailable, "concurrent update, retry the request", err)
		case sqlStateUniqueViolation:
			return common.WrapError(common.KindInvalid, "record already exists", err)
		case sqlStateForeignKeyViolation:
			return common.WrapError(common.KindCrossTenantReference, "referenced record is not available in this tenant", err)
		}
	}
	return err
}

// stillReferenced reports a delete blocked by rows of the same tenant that
// point at the record.
func stillReferenced(resource string, err error) error {
	return common.WrapError(common.KindInvalid, resource+" is still referenced", err)
}

// requireAffected reports not-found when a tenant-filtered write touched nothing.
func requireAffected(tag pgconn.CommandTag, resource string) error {
	if tag.RowsAffected() == 0 {
		return common.NotFound(resource)
	}
	return nil
}
