// internal/repository/postgres/balance_pg.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-core/internal/domain"
	"ledger-core/internal/repository"
	"ledger-core/internal/util"
)

// BalanceRepository implements repository.BalanceStore for PostgreSQL.
type BalanceRepository struct {
	q repository.DBExecutor
}

// NewBalanceRepository binds a BalanceRepository to a connection or a transaction.
// LockForUpdate and Save are only meaningful when q is a transaction.
func NewBalanceRepository(q repository.DBExecutor) *BalanceRepository {
	return &BalanceRepository{q: q}
}

var errBalanceMissing = errors.New("balance row missing")

const (
	ensureBalanceQuery = `INSERT INTO balances (owner_id, amount_minor_units, created_at, updated_at)
              VALUES ($1, 0, $2, $2) ON CONFLICT (owner_id) DO NOTHING`
	selectBalanceQuery = `SELECT owner_id, amount_minor_units, created_at, updated_at FROM balances WHERE owner_id = $1`
)

// ensure creates the zero balance if absent. The primary key on owner_id makes
// concurrent first accesses converge on a single row.
func (r *BalanceRepository) ensure(ctx context.Context, ownerID int64) error {
	if _, err := r.q.ExecContext(ctx, ensureBalanceQuery, ownerID, time.Now().UTC()); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create balance for owner %d: %w", ownerID, util.ErrUserNotFound)
		}
		return storeError(fmt.Sprintf("create balance for owner %d", ownerID), err)
	}
	return nil
}

// GetOrCreate returns the owner's balance, creating it at zero if absent.
func (r *BalanceRepository) GetOrCreate(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	if err := r.ensure(ctx, ownerID); err != nil {
		return nil, err
	}

	var balance domain.Balance
	if err := r.q.GetContext(ctx, &balance, selectBalanceQuery, ownerID); err != nil {
		return nil, storeError(fmt.Sprintf("get balance for owner %d", ownerID), err)
	}
	return &balance, nil
}

// LockForUpdate returns the owner's balance under a row lock held until the transaction ends.
func (r *BalanceRepository) LockForUpdate(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	if err := r.ensure(ctx, ownerID); err != nil {
		return nil, err
	}

	var balance domain.Balance
	if err := r.q.GetContext(ctx, &balance, selectBalanceQuery+" FOR UPDATE", ownerID); err != nil {
		return nil, storeError(fmt.Sprintf("lock balance for owner %d", ownerID), err)
	}
	return &balance, nil
}

// Save writes the new amount of a locked balance.
func (r *BalanceRepository) Save(ctx context.Context, balance *domain.Balance) error {
	balance.UpdatedAt = time.Now().UTC()
	query := `UPDATE balances SET amount_minor_units = $1, updated_at = $2 WHERE owner_id = $3`
	result, err := r.q.ExecContext(ctx, query, int64(balance.Amount), balance.UpdatedAt, balance.OwnerID)
	if err != nil {
		return storeError(fmt.Sprintf("save balance for owner %d", balance.OwnerID), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(fmt.Sprintf("save balance for owner %d", balance.OwnerID), err)
	}
	if rowsAffected == 0 {
		return util.NewStoreError(fmt.Sprintf("save balance for owner %d", balance.OwnerID), errBalanceMissing, false)
	}
	return nil
}
