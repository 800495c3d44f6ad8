// internal/domain/balance.go
package domain

import "time"

// Balance is the current amount held by one owner. There is exactly one balance per owner.
type Balance struct {
	OwnerID   int64     `db:"owner_id" json:"owner_id"`                     // Opaque identifier of the owning user
	Amount    Money     `db:"amount_minor_units" json:"amount_minor_units"` // Never negative
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewBalance creates a zero balance for ownerID.
func NewBalance(ownerID int64) *Balance {
	now := time.Now().UTC()
	return &Balance{
		OwnerID:   ownerID,
		Amount:    0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
