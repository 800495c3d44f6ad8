// internal/repository/postgres/errors.go
package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"ledger-core/internal/util"
)

// PostgreSQL error codes the repositories care about.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// sqlState extracts the SQLSTATE code from either driver's error type.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isTransient reports failures that a retry of the whole transaction may clear.
func isTransient(err error) bool {
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
		return true
	}

	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool { return sqlState(err) == codeUniqueViolation }

func isForeignKeyViolation(err error) bool { return sqlState(err) == codeForeignKeyViolation }

// storeError classifies a driver error into a *util.StoreError.
func storeError(op string, err error) error {
	return util.NewStoreError(op, err, isTransient(err))
}

// isCommitAborted reports a COMMIT the server definitely rolled back.
// A broken connection during COMMIT leaves the outcome unknown and is not retryable.
func isCommitAborted(err error) bool {
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// commitError classifies a failed COMMIT into a *util.StoreError.
func commitError(err error) error {
	return util.NewStoreError("commit transaction", err, isCommitAborted(err))
}
