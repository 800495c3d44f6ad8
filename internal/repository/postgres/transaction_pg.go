// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ledger-core/internal/domain"
	"ledger-core/internal/repository"
)

// TransactionRepository implements repository.TransactionLog for PostgreSQL.
type TransactionRepository struct {
	q repository.DBExecutor
}

// NewTransactionRepository binds a TransactionRepository to a connection or a transaction.
func NewTransactionRepository(q repository.DBExecutor) *TransactionRepository {
	return &TransactionRepository{q: q}
}

// Append inserts the record; the BIGSERIAL id is written back into it.
func (r *TransactionRepository) Append(ctx context.Context, record *domain.TransactionRecord) error {
	query := `INSERT INTO transactions (correlation_id, from_owner_id, to_owner_id, amount_minor_units, kind, description, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.q.GetContext(ctx, &record.ID, query,
		record.CorrelationID,
		record.FromOwnerID,
		record.ToOwnerID,
		int64(record.Amount),
		string(record.Kind),
		record.Description,
		record.CreatedAt,
	)
	if err != nil {
		return storeError(fmt.Sprintf("append %s record for owner %d", record.Kind, record.ToOwnerID), err)
	}
	return nil
}

// ListForOwner returns the owner's records newest first with both parties' usernames, and the total count.
// It performs two queries: one for the page and one for the count.
func (r *TransactionRepository) ListForOwner(ctx context.Context, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64, error) {
	records := []domain.TransactionRecord{}

	// A NULL limit means no limit.
	limit := sql.NullInt64{Int64: int64(page.Limit), Valid: page.Limit > 0}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT t.id, t.correlation_id, t.from_owner_id, t.to_owner_id, t.amount_minor_units, t.kind,
		       t.description, t.created_at,
		       COALESCE(f.username, '') AS from_username, COALESCE(u.username, '') AS to_username
		FROM transactions t
		LEFT JOIN users f ON f.id = t.from_owner_id
		LEFT JOIN users u ON u.id = t.to_owner_id
		WHERE t.from_owner_id = $1 OR t.to_owner_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`
	if err := r.q.SelectContext(ctx, &records, query, ownerID, limit, offset); err != nil {
		return nil, 0, storeError(fmt.Sprintf("list transactions for owner %d", ownerID), err)
	}

	var totalCount int64
	countQuery := `
		SELECT COUNT(*)
		FROM transactions
		WHERE from_owner_id = $1 OR to_owner_id = $1`
	if err := r.q.GetContext(ctx, &totalCount, countQuery, ownerID); err != nil {
		return nil, 0, storeError(fmt.Sprintf("count transactions for owner %d", ownerID), err)
	}

	return records, totalCount, nil
}
