// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ledger-core/internal/domain"
	"ledger-core/internal/events"
	"ledger-core/internal/repository"
	"ledger-core/internal/util"
)

// DefaultMaxAmount is the default ceiling for a single deposit or transfer, in minor units.
const DefaultMaxAmount domain.Money = 100_000_000

const publishTimeout = 5 * time.Second

// Limits are the per-operation amount ceilings. A zero ceiling disables the check.
type Limits struct {
	MaxDeposit  domain.Money
	MaxTransfer domain.Money
}

// DefaultLimits returns the default ceilings for both operations.
func DefaultLimits() Limits {
	return Limits{MaxDeposit: DefaultMaxAmount, MaxTransfer: DefaultMaxAmount}
}

// DepositResult is the outcome of a committed deposit.
type DepositResult struct {
	Balance *domain.Balance
	Record  *domain.TransactionRecord
}

// TransferResult is the outcome of a committed transfer.
type TransferResult struct {
	Recipient     *domain.User
	Amount        domain.Money
	SenderBalance *domain.Balance
	Out           *domain.TransactionRecord
	In            *domain.TransactionRecord
}

// LedgerService defines the balance-mutation engine and its read side.
type LedgerService interface {
	GetBalance(ctx context.Context, ownerID int64) (*domain.Balance, error)
	Deposit(ctx context.Context, ownerID int64, amount domain.Money) (*DepositResult, error)
	Transfer(ctx context.Context, senderID, recipientID int64, amount domain.Money) (*TransferResult, error)
	GetTransactions(ctx context.Context, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	store     repository.Store
	resolver  repository.IdentityResolver
	publisher events.Publisher
	limits    Limits
	logger    *slog.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	store repository.Store,
	resolver repository.IdentityResolver,
	publisher events.Publisher,
	limits Limits,
	logger *slog.Logger,
) LedgerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = util.GetLogger()
	}
	return &ledgerService{
		store:     store,
		resolver:  resolver,
		publisher: publisher,
		limits:    limits,
		logger:    logger,
	}
}

func validateAmount(amount, ceiling domain.Money) error {
	if !amount.IsPositive() {
		return util.ErrInvalidAmount
	}
	if ceiling > 0 && amount > ceiling {
		return util.ErrAmountTooLarge
	}
	return nil
}

// storeFailure makes sure an infrastructure error reaches the caller as a StoreError.
func storeFailure(op string, err error) error {
	if util.IsBusinessError(err) || errors.Is(err, util.ErrStore) {
		return err
	}
	return util.NewStoreError(op, err, false)
}

// overflow maps a Money overflow onto the InvalidAmount business error.
func overflow(err error) error {
	return fmt.Errorf("%w: %w", util.ErrInvalidAmount, err)
}

// Deposit credits external funds to the owner's balance.
func (s *ledgerService) Deposit(ctx context.Context, ownerID int64, amount domain.Money) (*DepositResult, error) {
	log := s.logger.With("operation", "deposit", "owner_id", ownerID, "amount_minor_units", int64(amount))
	log.Info("Deposit attempt")

	if err := validateAmount(amount, s.limits.MaxDeposit); err != nil {
		log.Warn("Deposit rejected", "error", err)
		return nil, err
	}

	result, err := s.deposit(ctx, ownerID, amount)
	if err != nil {
		s.logFailure(log, "Deposit failed", err)
		return nil, fmt.Errorf("deposit: %w", err)
	}

	log.Info("Deposit committed", "new_balance", int64(result.Balance.Amount), "transaction_id", result.Record.ID)
	s.publish(ctx, log, result.Record)
	return result, nil
}

func (s *ledgerService) deposit(ctx context.Context, ownerID int64, amount domain.Money) (*DepositResult, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, storeFailure("begin transaction", err)
	}
	defer tx.Rollback()

	balance, err := tx.Balances().LockForUpdate(ctx, ownerID)
	if err != nil {
		return nil, storeFailure("lock balance", err)
	}

	newAmount, err := balance.Amount.Add(amount)
	if err != nil {
		return nil, overflow(err)
	}
	balance.Amount = newAmount
	if err := tx.Balances().Save(ctx, balance); err != nil {
		return nil, storeFailure("save balance", err)
	}

	record := domain.NewDepositRecord(ownerID, amount)
	if err := tx.Transactions().Append(ctx, record); err != nil {
		return nil, storeFailure("append deposit record", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeFailure("commit transaction", err)
	}
	return &DepositResult{Balance: balance, Record: record}, nil
}

// Transfer moves funds between two users. Balance locks are always taken in ascending
// owner id order, so transfers in opposite directions cannot deadlock.
func (s *ledgerService) Transfer(ctx context.Context, senderID, recipientID int64, amount domain.Money) (*TransferResult, error) {
	log := s.logger.With("operation", "transfer", "sender_id", senderID, "recipient_id", recipientID, "amount_minor_units", int64(amount))
	log.Info("Transfer attempt")

	if err := validateAmount(amount, s.limits.MaxTransfer); err != nil {
		log.Warn("Transfer rejected", "error", err)
		return nil, err
	}
	if senderID == recipientID {
		log.Warn("Transfer rejected", "error", util.ErrSelfTransfer)
		return nil, util.ErrSelfTransfer
	}

	recipient, err := s.resolver.ResolveUser(ctx, recipientID)
	if err != nil {
		if util.IsError(err, util.ErrUserNotFound, util.ErrNotFound) {
			log.Warn("Transfer rejected", "error", util.ErrRecipientNotFound)
			return nil, util.ErrRecipientNotFound
		}
		err = storeFailure("resolve recipient", err)
		s.logFailure(log, "Transfer failed", err)
		return nil, fmt.Errorf("transfer: %w", err)
	}

	result, err := s.transfer(ctx, senderID, recipient, amount, s.senderName(ctx, log, senderID))
	if err != nil {
		s.logFailure(log, "Transfer failed", err)
		return nil, fmt.Errorf("transfer: %w", err)
	}

	log.Info("Transfer committed",
		"sender_new_balance", int64(result.SenderBalance.Amount),
		"correlation_id", result.Out.CorrelationID.String(),
	)
	s.publish(ctx, log, result.Out, result.In)
	return result, nil
}

// senderName is only used for record descriptions; the id stands in when the name is unavailable.
func (s *ledgerService) senderName(ctx context.Context, log *slog.Logger, senderID int64) string {
	sender, err := s.resolver.ResolveUser(ctx, senderID)
	if err != nil {
		log.Debug("Sender name unavailable", "error", err)
		return strconv.FormatInt(senderID, 10)
	}
	return sender.Username
}

func (s *ledgerService) transfer(ctx context.Context, senderID int64, recipient *domain.User, amount domain.Money, senderName string) (*TransferResult, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, storeFailure("begin transaction", err)
	}
	defer tx.Rollback()

	balances := tx.Balances()
	var sender, receiver *domain.Balance

	// Funds are checked under the sender's lock. When the sender sorts first the
	// recipient is never locked on the insufficient-funds path.
	if senderID < recipient.ID {
		if sender, err = balances.LockForUpdate(ctx, senderID); err != nil {
			return nil, storeFailure("lock sender balance", err)
		}
		if sender.Amount < amount {
			return nil, util.ErrInsufficientFunds
		}
		if receiver, err = balances.LockForUpdate(ctx, recipient.ID); err != nil {
			return nil, storeFailure("lock recipient balance", err)
		}
	} else {
		if receiver, err = balances.LockForUpdate(ctx, recipient.ID); err != nil {
			return nil, storeFailure("lock recipient balance", err)
		}
		if sender, err = balances.LockForUpdate(ctx, senderID); err != nil {
			return nil, storeFailure("lock sender balance", err)
		}
		if sender.Amount < amount {
			return nil, util.ErrInsufficientFunds
		}
	}

	senderAmount, err := sender.Amount.Sub(amount)
	if err != nil {
		return nil, overflow(err)
	}
	receiverAmount, err := receiver.Amount.Add(amount)
	if err != nil {
		return nil, overflow(err)
	}
	sender.Amount = senderAmount
	receiver.Amount = receiverAmount

	if err := balances.Save(ctx, sender); err != nil {
		return nil, storeFailure("save sender balance", err)
	}
	if err := balances.Save(ctx, receiver); err != nil {
		return nil, storeFailure("save recipient balance", err)
	}

	out, in := domain.NewTransferRecords(senderID, recipient.ID, senderName, recipient.Username, amount)
	if err := tx.Transactions().Append(ctx, out); err != nil {
		return nil, storeFailure("append transfer_out record", err)
	}
	if err := tx.Transactions().Append(ctx, in); err != nil {
		return nil, storeFailure("append transfer_in record", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeFailure("commit transaction", err)
	}

	return &TransferResult{
		Recipient:     recipient,
		Amount:        amount,
		SenderBalance: sender,
		Out:           out,
		In:            in,
	}, nil
}

// GetBalance returns the owner's committed balance, creating it at zero on first access.
func (s *ledgerService) GetBalance(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	balance, err := s.store.Balances().GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", storeFailure("get balance", err))
	}
	return balance, nil
}

// GetTransactions returns the owner's history newest first, and the total number of records.
func (s *ledgerService) GetTransactions(ctx context.Context, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64, error) {
	records, total, err := s.store.Transactions().ListForOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("get transactions: %w", storeFailure("list transactions", err))
	}
	return records, total, nil
}

func (s *ledgerService) logFailure(log *slog.Logger, msg string, err error) {
	if util.IsBusinessError(err) {
		log.Warn(msg, "error", err)
		return
	}
	log.Error(msg, "error", err, "transient", util.IsTransient(err))
}

// publish announces committed records. A delivery failure never undoes the committed operation.
func (s *ledgerService) publish(ctx context.Context, log *slog.Logger, records ...*domain.TransactionRecord) {
	evts := make([]events.LedgerEvent, 0, len(records))
	for _, record := range records {
		evts = append(evts, events.NewLedgerEvent(record))
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		log.Warn("Failed to publish ledger events", "error", err, "events", len(evts))
	}
}
