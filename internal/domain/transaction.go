// internal/domain/transaction.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionKind defines the kind of a ledger record.
type TransactionKind string

const (
	TransactionKindDeposit     TransactionKind = "deposit"
	TransactionKindTransferOut TransactionKind = "transfer_out"
	TransactionKindTransferIn  TransactionKind = "transfer_in"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindTransferOut, TransactionKindTransferIn:
		return true
	}
	return false
}

// SystemAccountName names the sender of funds that enter the system.
const SystemAccountName = "System"

// TransactionRecord is an immutable entry of the ledger history.
// FromOwnerID is nil for funds that enter the system (deposits).
// Both records of a transfer carry the sender in FromOwnerID and the recipient in ToOwnerID.
// FromUsername and ToUsername are not stored; history reads fill them from the users table.
type TransactionRecord struct {
	ID            int64           `db:"id" json:"id"`                         // Assigned by the log on append
	CorrelationID uuid.UUID       `db:"correlation_id" json:"correlation_id"` // Shared by the two records of a transfer
	FromOwnerID   *int64          `db:"from_owner_id" json:"from_owner_id"`
	ToOwnerID     int64           `db:"to_owner_id" json:"to_owner_id"`
	Amount        Money           `db:"amount_minor_units" json:"amount_minor_units"` // Always > 0
	Kind          TransactionKind `db:"kind" json:"kind"`
	Description   string          `db:"description" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	FromUsername  string          `db:"from_username" json:"from_username,omitempty"`
	ToUsername    string          `db:"to_username" json:"to_username,omitempty"`
}

// SenderName is the name shown as the origin of the record.
func (r TransactionRecord) SenderName() string {
	if r.FromOwnerID == nil {
		return SystemAccountName
	}
	return r.FromUsername
}

// NewDepositRecord builds the record of external funds credited to ownerID.
func NewDepositRecord(ownerID int64, amount Money) *TransactionRecord {
	return &TransactionRecord{
		CorrelationID: uuid.New(),
		FromOwnerID:   nil,
		ToOwnerID:     ownerID,
		Amount:        amount,
		Kind:          TransactionKindDeposit,
		Description:   fmt.Sprintf("Deposit of %d minor units", amount),
		CreatedAt:     time.Now().UTC(),
	}
}

// NewTransferRecords builds the TransferOut/TransferIn pair of a single transfer.
// senderName and recipientName are only used for the human-readable descriptions.
func NewTransferRecords(senderID, recipientID int64, senderName, recipientName string, amount Money) (out, in *TransactionRecord) {
	correlationID := uuid.New()
	now := time.Now().UTC()
	sender := senderID

	out = &TransactionRecord{
		CorrelationID: correlationID,
		FromOwnerID:   &sender,
		ToOwnerID:     recipientID,
		Amount:        amount,
		Kind:          TransactionKindTransferOut,
		Description:   fmt.Sprintf("Transfer of %d minor units to %s", amount, recipientName),
		CreatedAt:     now,
	}
	in = &TransactionRecord{
		CorrelationID: correlationID,
		FromOwnerID:   &sender,
		ToOwnerID:     recipientID,
		Amount:        amount,
		Kind:          TransactionKindTransferIn,
		Description:   fmt.Sprintf("Received %d minor units from %s", amount, senderName),
		CreatedAt:     now,
	}
	return out, in
}

// InvolvesOwner reports whether ownerID is the sender or the recipient of the record.
func (t *TransactionRecord) InvolvesOwner(ownerID int64) bool {
	if t.ToOwnerID == ownerID {
		return true
	}
	return t.FromOwnerID != nil && *t.FromOwnerID == ownerID
}
