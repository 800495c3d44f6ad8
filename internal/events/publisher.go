// internal/events/publisher.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ledger-core/internal/domain"
)

// LedgerEvent announces a committed ledger record to downstream consumers.
type LedgerEvent struct {
	ID               uuid.UUID              `json:"id"`
	CorrelationID    uuid.UUID              `json:"correlation_id"`
	Kind             domain.TransactionKind `json:"kind"`
	FromOwnerID      *int64                 `json:"from_owner_id"`
	ToOwnerID        int64                  `json:"to_owner_id"`
	AmountMinorUnits int64                  `json:"amount_minor_units"`
	OccurredAt       time.Time              `json:"occurred_at"`
}

// NewLedgerEvent builds the event for a committed record.
func NewLedgerEvent(record *domain.TransactionRecord) LedgerEvent {
	return LedgerEvent{
		ID:               uuid.New(),
		CorrelationID:    record.CorrelationID,
		Kind:             record.Kind,
		FromOwnerID:      record.FromOwnerID,
		ToOwnerID:        record.ToOwnerID,
		AmountMinorUnits: int64(record.Amount),
		OccurredAt:       record.CreatedAt,
	}
}

// Publisher delivers ledger events. It is only called after the ledger transaction committed.
type Publisher interface {
	Publish(ctx context.Context, events ...LedgerEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...LedgerEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
