// Package memory is an in-process implementation of the ledger store.
// Row locks are real: a transaction holding an owner's lock blocks every other
// transaction that locks the same owner until it commits or rolls back.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ledger-core/internal/domain"
	"ledger-core/internal/repository"
	"ledger-core/internal/util"
)

var errNegativeBalance = errors.New("balance amount must not be negative")

// Store implements repository.Store and repository.UserRepository in memory.
type Store struct {
	mu       sync.RWMutex
	balances map[int64]domain.Balance
	records  []domain.TransactionRecord
	users    map[int64]domain.User
	userSeq  int64
	txSeq    int64

	locksMu sync.Mutex
	locks   map[int64]chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		balances: make(map[int64]domain.Balance),
		users:    make(map[int64]domain.User),
		locks:    make(map[int64]chan struct{}),
	}
}

// rowLock returns the lock of an owner's balance row. A buffered channel of size one
// is a mutex whose acquisition can be abandoned when the context is done.
func (s *Store) rowLock(ownerID int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[ownerID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[ownerID] = lock
	}
	return lock
}

func (s *Store) acquire(ctx context.Context, ownerID int64) error {
	select {
	case s.rowLock(ownerID) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return util.NewStoreError(fmt.Sprintf("lock balance for owner %d", ownerID), ctx.Err(), true)
	}
}

func (s *Store) release(ownerID int64) {
	<-s.rowLock(ownerID)
}

func (s *Store) getOrCreate(ownerID int64) domain.Balance {
	s.mu.RLock()
	balance, ok := s.balances[ownerID]
	s.mu.RUnlock()
	if ok {
		return balance
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if balance, ok := s.balances[ownerID]; ok {
		return balance
	}
	balance = *domain.NewBalance(ownerID)
	s.balances[ownerID] = balance
	return balance
}

// listForOwner filters records newest first and applies the page.
func listForOwner(records []domain.TransactionRecord, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64) {
	matched := []domain.TransactionRecord{}
	for _, record := range records {
		if record.InvolvesOwner(ownerID) {
			matched = append(matched, record)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.TransactionRecord{}, total
	}
	matched = matched[offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched, total
}

// BeginTx opens a transaction scope.
func (s *Store) BeginTx(ctx context.Context) (repository.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, util.NewStoreError("begin transaction", err, true)
	}
	return &Tx{
		store:  s,
		held:   make(map[int64]bool),
		writes: make(map[int64]domain.Balance),
	}, nil
}

// Balances serves committed reads.
func (s *Store) Balances() repository.BalanceReader { return committedBalances{s} }

// Transactions serves committed reads.
func (s *Store) Transactions() repository.TransactionReader { return committedTransactions{s} }

type committedBalances struct{ s *Store }

func (c committedBalances) GetOrCreate(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	balance := c.s.getOrCreate(ownerID)
	return &balance, nil
}

type committedTransactions struct{ s *Store }

func (c committedTransactions) ListForOwner(ctx context.Context, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	records, total := listForOwner(c.s.records, ownerID, page)
	c.s.fillUsernames(records)
	return records, total, nil
}

// fillUsernames must be called with s.mu held. Owners without a user keep empty names.
func (s *Store) fillUsernames(records []domain.TransactionRecord) {
	for i := range records {
		if records[i].FromOwnerID != nil {
			records[i].FromUsername = s.users[*records[i].FromOwnerID].Username
		}
		records[i].ToUsername = s.users[records[i].ToOwnerID].Username
	}
}

// Tx buffers its writes and applies them atomically on Commit.
type Tx struct {
	store   *Store
	mu      sync.Mutex
	held    map[int64]bool
	writes  map[int64]domain.Balance
	pending []*domain.TransactionRecord
	users   []domain.User
	done    bool
}

func (t *Tx) Balances() repository.BalanceStore { return t }

func (t *Tx) Transactions() repository.TransactionLog { return t }

func (t *Tx) Users() repository.UserWriter { return txUsers{t} }

func (t *Tx) checkOpen(op string) error {
	if t.done {
		return util.NewStoreError(op, errors.New("transaction already finished"), false)
	}
	return nil
}

// GetOrCreate sees this transaction's own writes.
func (t *Tx) GetOrCreate(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen("get balance"); err != nil {
		return nil, err
	}
	if balance, ok := t.writes[ownerID]; ok {
		return &balance, nil
	}
	balance := t.store.getOrCreate(ownerID)
	return &balance, nil
}

func (t *Tx) LockForUpdate(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	t.mu.Lock()
	if err := t.checkOpen("lock balance"); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	held := t.held[ownerID]
	t.mu.Unlock()

	if !held {
		// Wait without holding t.mu so Rollback from another goroutine is not blocked.
		if err := t.store.acquire(ctx, ownerID); err != nil {
			return nil, err
		}
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			t.store.release(ownerID)
			return nil, util.NewStoreError("lock balance", errors.New("transaction already finished"), false)
		}
		t.held[ownerID] = true
		t.mu.Unlock()
	}
	return t.GetOrCreate(ctx, ownerID)
}

func (t *Tx) Save(ctx context.Context, balance *domain.Balance) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	op := fmt.Sprintf("save balance for owner %d", balance.OwnerID)
	if err := t.checkOpen(op); err != nil {
		return err
	}
	if !t.held[balance.OwnerID] {
		return util.NewStoreError(op, errors.New("balance is not locked by this transaction"), false)
	}
	if balance.Amount < 0 {
		return util.NewStoreError(op, errNegativeBalance, false)
	}
	balance.UpdatedAt = time.Now().UTC()
	t.writes[balance.OwnerID] = *balance
	return nil
}

// Append assigns the next id right away; ids of rolled back records are never reused.
func (t *Tx) Append(ctx context.Context, record *domain.TransactionRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	op := fmt.Sprintf("append %s record for owner %d", record.Kind, record.ToOwnerID)
	if err := t.checkOpen(op); err != nil {
		return err
	}
	if !record.Amount.IsPositive() || !record.Kind.Valid() {
		return util.NewStoreError(op, fmt.Errorf("invalid record: amount %d kind %q", record.Amount, record.Kind), false)
	}

	t.store.mu.Lock()
	t.store.txSeq++
	record.ID = t.store.txSeq
	t.store.mu.Unlock()

	t.pending = append(t.pending, record)
	return nil
}

// ListForOwner sees committed records plus this transaction's own appends.
func (t *Tx) ListForOwner(ctx context.Context, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen("list transactions"); err != nil {
		return nil, 0, err
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	records := make([]domain.TransactionRecord, 0, len(t.store.records)+len(t.pending))
	records = append(records, t.store.records...)
	for _, record := range t.pending {
		records = append(records, *record)
	}

	matched, total := listForOwner(records, ownerID, page)
	t.store.fillUsernames(matched)
	return matched, total, nil
}

func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen("commit transaction"); err != nil {
		return err
	}

	t.store.mu.Lock()
	for _, user := range t.users {
		if t.store.usernameTaken(user.Username) {
			t.store.mu.Unlock()
			t.finish()
			return fmt.Errorf("create user '%s': %w", user.Username, util.ErrDuplicateEntry)
		}
	}
	for _, user := range t.users {
		t.store.users[user.ID] = user
	}
	for ownerID, balance := range t.writes {
		t.store.balances[ownerID] = balance
	}
	for _, record := range t.pending {
		t.store.records = append(t.store.records, *record)
	}
	t.store.mu.Unlock()

	t.finish()
	return nil
}

// Rollback discards the buffered writes. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	for ownerID := range t.held {
		t.store.release(ownerID)
	}
	t.held = nil
	t.writes = nil
	t.pending = nil
	t.users = nil
}

type txUsers struct{ t *Tx }

// CreateUser assigns the id right away and makes the user visible on Commit.
func (u txUsers) CreateUser(ctx context.Context, user *domain.User) error {
	u.t.mu.Lock()
	defer u.t.mu.Unlock()
	if err := u.t.checkOpen("create user"); err != nil {
		return err
	}
	for _, pending := range u.t.users {
		if pending.Username == user.Username {
			return fmt.Errorf("create user '%s': %w", user.Username, util.ErrDuplicateEntry)
		}
	}

	u.t.store.mu.Lock()
	defer u.t.store.mu.Unlock()
	if u.t.store.usernameTaken(user.Username) {
		return fmt.Errorf("create user '%s': %w", user.Username, util.ErrDuplicateEntry)
	}
	u.t.store.userSeq++
	user.ID = u.t.store.userSeq
	u.t.users = append(u.t.users, *user)
	return nil
}

// CreateUser implements repository.UserRepository.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(user.Username) {
		return fmt.Errorf("create user '%s': %w", user.Username, util.ErrDuplicateEntry)
	}
	s.userSeq++
	user.ID = s.userSeq
	s.users[user.ID] = *user
	return nil
}

// usernameTaken must be called with s.mu held.
func (s *Store) usernameTaken(username string) bool {
	for _, existing := range s.users {
		if existing.Username == username {
			return true
		}
	}
	return false
}

// AddUser registers a user by name and returns it. It panics on a duplicate name and is meant for seeding.
func (s *Store) AddUser(username string) *domain.User {
	user := domain.NewUser(username)
	if err := s.CreateUser(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, util.ErrNotFound
}

// ResolveUser implements repository.IdentityResolver.
func (s *Store) ResolveUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// Total returns the sum of all committed balances.
func (s *Store) Total() domain.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total domain.Money
	for _, balance := range s.balances {
		total += balance.Amount
	}
	return total
}
