// internal/repository/balance_repo.go
package repository

import (
	"context"

	"ledger-core/internal/domain"
)

// BalanceReader is the read side of the balance store.
type BalanceReader interface {
	// GetOrCreate returns the owner's balance, creating it at zero on first access.
	// Concurrent first accesses create at most one balance per owner.
	GetOrCreate(ctx context.Context, ownerID int64) (*domain.Balance, error)
}

// BalanceStore is the balance store as seen inside a transaction scope.
type BalanceStore interface {
	BalanceReader
	// LockForUpdate takes an exclusive lock on the owner's balance (creating it at zero if absent)
	// and returns its value under the lock. The lock is held until the transaction ends.
	LockForUpdate(ctx context.Context, ownerID int64) (*domain.Balance, error)
	// Save persists the new amount. The caller must hold the lock from LockForUpdate.
	Save(ctx context.Context, balance *domain.Balance) error
}
