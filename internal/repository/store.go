// internal/repository/store.go
package repository

import "context"

// Tx is an open transaction scope. Every mutation made through Balances, Transactions and Users
// becomes visible on Commit or is discarded on Rollback. Rollback after Commit is a no-op.
type Tx interface {
	Balances() BalanceStore
	Transactions() TransactionLog
	Users() UserWriter
	Commit() error
	Rollback() error
}

// Store is the transactional store the ledger runs against.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
	// Balances and Transactions serve reads outside of any transaction scope.
	Balances() BalanceReader
	Transactions() TransactionReader
}
