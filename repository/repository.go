// Package repository implements the user and task stores on PostgreSQL.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/apperr"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify turns a pgx error into the service taxonomy. Constraint
// violations are the storage layer's answer to check-then-act races.
func classify(builder oops.OopsErrorBuilder, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return builder.With("constraint", pgErr.ConstraintName).
				Public("user already exists").
				Wrap(errors.Join(apperr.ErrConflict, err))
		case pgerrcode.ForeignKeyViolation:
			return builder.With("constraint", pgErr.ConstraintName).
				Public("user not found").
				Wrap(errors.Join(apperr.ErrNotFound, err))
		case pgerrcode.StringDataRightTruncationDataException, pgerrcode.CheckViolation:
			return builder.With("constraint", pgErr.ConstraintName).
				Public("invalid field value").
				Wrap(errors.Join(apperr.ErrValidation, err))
		case pgerrcode.QueryCanceled:
			return apperr.Storage(builder, errors.Join(context.DeadlineExceeded, err))
		}
	}
	if pgconn.Timeout(err) {
		return apperr.Storage(builder, errors.Join(context.DeadlineExceeded, err))
	}
	return apperr.Storage(builder, err)
}
