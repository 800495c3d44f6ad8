package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"ledger-core/internal/util"
)

func TestStoreErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"LockTimeout", &pq.Error{Code: codeLockNotAvailable}, true},
		{"DeadlockPGX", &pgconn.PgError{Code: codeDeadlockDetected}, true},
		{"BadConnection", driver.ErrBadConn, true},
		{"DeadlineExceeded", context.DeadlineExceeded, true},
		{"CheckViolation", &pq.Error{Code: "23514"}, false},
		{"Plain", errors.New("boom"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := storeError("lock balance", tc.err)
			assert.ErrorIs(t, err, util.ErrStore)
			assert.Equal(t, tc.transient, util.IsTransient(err))
		})
	}
}

func TestCommitErrorIsTransientOnlyWhenAborted(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"SerializationFailure", &pq.Error{Code: codeSerializationFailure}, true},
		{"DeadlockPGX", &pgconn.PgError{Code: codeDeadlockDetected}, true},
		{"UnexpectedEOF", io.ErrUnexpectedEOF, false},
		{"BadConnection", driver.ErrBadConn, false},
		{"DeadlineExceeded", context.DeadlineExceeded, false},
		{"LockTimeout", &pq.Error{Code: codeLockNotAvailable}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := commitError(tc.err)
			assert.ErrorIs(t, err, util.ErrStore)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.transient, util.IsTransient(err))
		})
	}
}
