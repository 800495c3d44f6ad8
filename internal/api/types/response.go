// internal/api/types/response.go
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger-core/internal/domain"
)

// PaginatedResponse defines a generic structure for paginated API responses.
// T represents the type of data contained in the 'Data' slice.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// Amount is a major-unit display value. It is written as a JSON number with a fixed
// number of decimal places (5000 minor units -> 50.00).
type Amount struct {
	decimal.Decimal
}

// NewAmount converts minor units to their display value.
func NewAmount(m domain.Money) Amount {
	return Amount{Decimal: m.Major()}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(domain.MinorUnitDigits)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// BalanceResponse carries a balance in minor units and its major-unit display value.
type BalanceResponse struct {
	OwnerID           int64     `json:"owner_id"`
	BalanceMinorUnits int64     `json:"balance_minor_units"`
	Balance           Amount    `json:"balance"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewBalanceResponse converts a domain balance.
func NewBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		OwnerID:           b.OwnerID,
		BalanceMinorUnits: int64(b.Amount),
		Balance:           NewAmount(b.Amount),
		UpdatedAt:         b.UpdatedAt,
	}
}

// DepositResponse is returned by a successful deposit.
type DepositResponse struct {
	Message              string `json:"message"`
	TransactionID        int64  `json:"transaction_id"`
	NewBalanceMinorUnits int64  `json:"new_balance_minor_units"`
	NewBalance           Amount `json:"new_balance"`
}

// TransferResponse is returned by a successful transfer.
type TransferResponse struct {
	Message              string    `json:"message"`
	CorrelationID        uuid.UUID `json:"correlation_id"`
	Recipient            string    `json:"recipient"`
	AmountMinorUnits     int64     `json:"amount_minor_units"`
	Amount               Amount    `json:"amount"`
	NewBalanceMinorUnits int64     `json:"new_balance_minor_units"`
	NewBalance           Amount    `json:"new_balance"`
}

// TransactionResponse is one entry of the transaction history.
type TransactionResponse struct {
	ID               int64     `json:"id"`
	CorrelationID    uuid.UUID `json:"correlation_id"`
	Kind             string    `json:"kind"`
	FromOwnerID      *int64    `json:"from_owner_id"`
	ToOwnerID        int64     `json:"to_owner_id"`
	AmountMinorUnits int64     `json:"amount_minor_units"`
	Amount           Amount    `json:"amount"`
	Description      string    `json:"description"`
	FromUsername     string    `json:"from_username"`
	ToUsername       string    `json:"to_username"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewTransactionResponse converts a domain record.
func NewTransactionResponse(r domain.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		ID:               r.ID,
		CorrelationID:    r.CorrelationID,
		Kind:             string(r.Kind),
		FromOwnerID:      r.FromOwnerID,
		ToOwnerID:        r.ToOwnerID,
		AmountMinorUnits: int64(r.Amount),
		Amount:           NewAmount(r.Amount),
		Description:      r.Description,
		FromUsername:     r.SenderName(),
		ToUsername:       r.ToUsername,
		CreatedAt:        r.CreatedAt,
	}
}

// UserResponse is returned when a user is registered.
type UserResponse struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Balance   BalanceResponse `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
