package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "fxdesk/pkg/errors"
)

const pgUniqueViolation = "23505"

// storeError maps a pgx error onto the application error taxonomy. Queries
// that never reached the server become network errors; server-side failures
// become remote errors carrying the SQLSTATE.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Wrap(apperrors.ErrNotFound, op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return apperrors.Wrapf(apperrors.ErrAlreadyExists, "%s: %s", op, pgErr.ConstraintName)
		}
		return apperrors.NewRemoteError(op, 0, pgErr.Code+": "+pgErr.Message)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return apperrors.NetworkError(op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperrors.NetworkError(op, err)
	}

	return apperrors.Wrapf(err, "failed to %s", op)
}
