// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"ledger-core/internal/domain"
)

// Page selects a window of an owner's history. Limit <= 0 selects everything from Offset on.
type Page struct {
	Limit  int
	Offset int
}

// All is the page holding the full history.
var All = Page{}

// TransactionReader is the read side of the transaction log.
type TransactionReader interface {
	// ListForOwner returns the records where ownerID is sender or recipient, newest first,
	// together with the total number of such records.
	ListForOwner(ctx context.Context, ownerID int64, page Page) ([]domain.TransactionRecord, int64, error)
}

// TransactionLog is the append-only transaction log as seen inside a transaction scope.
type TransactionLog interface {
	TransactionReader
	// Append stores the record and sets its ID. IDs increase monotonically.
	Append(ctx context.Context, record *domain.TransactionRecord) error
}
