package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"ledger-core/internal/domain"
	"ledger-core/internal/events"
	"ledger-core/internal/repository"
	"ledger-core/internal/repository/memory"
	"ledger-core/internal/util"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockStore is a mock implementation of repository.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Tx), args.Error(1)
}

func (m *MockStore) Balances() repository.BalanceReader {
	return m.Called().Get(0).(repository.BalanceReader)
}

func (m *MockStore) Transactions() repository.TransactionReader {
	return m.Called().Get(0).(repository.TransactionReader)
}

// MockIdentityResolver is a mock implementation of repository.IdentityResolver.
type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) ResolveUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evts ...events.LedgerEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) ResolveUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

var errInjected = errors.New("injected failure")

// faultyStore wraps the memory store and fails the n-th Append of every transaction.
type faultyStore struct {
	*memory.Store
	failAppendAt int
}

func (f *faultyStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := f.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, failAt: f.failAppendAt}, nil
}

type faultyTx struct {
	repository.Tx
	failAt  int
	appends int
}

func (t *faultyTx) Transactions() repository.TransactionLog {
	return &faultyLog{TransactionLog: t.Tx.Transactions(), tx: t}
}

type faultyLog struct {
	repository.TransactionLog
	tx *faultyTx
}

func (l *faultyLog) Append(ctx context.Context, record *domain.TransactionRecord) error {
	l.tx.appends++
	if l.tx.appends == l.tx.failAt {
		return util.NewStoreError("append record", errInjected, false)
	}
	return l.TransactionLog.Append(ctx, record)
}

// brokenBalanceStore wraps the memory store and fails every balance read inside a transaction.
type brokenBalanceStore struct {
	*memory.Store
}

func (b *brokenBalanceStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := b.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &brokenBalanceTx{Tx: tx}, nil
}

type brokenBalanceTx struct {
	repository.Tx
}

func (t *brokenBalanceTx) Balances() repository.BalanceStore {
	return brokenBalances{BalanceStore: t.Tx.Balances()}
}

type brokenBalances struct {
	repository.BalanceStore
}

func (brokenBalances) GetOrCreate(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	return nil, util.NewStoreError("get balance", errInjected, false)
}
