// internal/repository/postgres/store.go
package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"ledger-core/internal/repository"
	"ledger-core/pkg/db"
)

// Store implements repository.Store on top of a PostgreSQL connection pool.
type Store struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewStore creates a Store. lockTimeout bounds row-lock waits per transaction; zero waits forever.
func NewStore(database *sqlx.DB, lockTimeout time.Duration) *Store {
	return &Store{db: database, lockTimeout: lockTimeout}
}

// BeginTx opens a transaction scope.
func (s *Store) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := db.BeginTx(ctx, s.db, s.lockTimeout)
	if err != nil {
		return nil, storeError("begin transaction", err)
	}
	return &storeTx{tx: tx}, nil
}

// Balances serves reads outside of a transaction scope.
func (s *Store) Balances() repository.BalanceReader {
	return NewBalanceRepository(s.db)
}

// Transactions serves reads outside of a transaction scope.
func (s *Store) Transactions() repository.TransactionReader {
	return NewTransactionRepository(s.db)
}

type storeTx struct {
	tx *sqlx.Tx
}

func (t *storeTx) Balances() repository.BalanceStore {
	return NewBalanceRepository(t.tx)
}

func (t *storeTx) Transactions() repository.TransactionLog {
	return NewTransactionRepository(t.tx)
}

func (t *storeTx) Users() repository.UserWriter {
	return NewUserRepository(t.tx)
}

func (t *storeTx) Commit() error {
	if err := db.CommitTx(t.tx); err != nil {
		return commitError(err)
	}
	return nil
}

// Rollback is safe to call after Commit.
func (t *storeTx) Rollback() error {
	db.RollbackTx(t.tx)
	return nil
}
