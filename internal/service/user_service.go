// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ledger-core/internal/domain"
	"ledger-core/internal/repository"
	"ledger-core/internal/util"
)

const maxUsernameLength = 150

// UserService registers ledger owners. Authentication stays with the upstream gateway;
// this only gives an owner id a name and an opening zero balance.
type UserService interface {
	RegisterUser(ctx context.Context, username string) (*domain.User, *domain.Balance, error)
}

type userService struct {
	users  repository.UserRepository
	store  repository.Store
	logger *slog.Logger
}

// NewUserService creates a new instance of UserService.
func NewUserService(users repository.UserRepository, store repository.Store, logger *slog.Logger) UserService {
	if logger == nil {
		logger = util.GetLogger()
	}
	return &userService{users: users, store: store, logger: logger}
}

// RegisterUser creates the user and its opening balance in one transaction.
func (s *userService) RegisterUser(ctx context.Context, username string) (*domain.User, *domain.Balance, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, nil, util.ErrInvalidInput
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil, nil, fmt.Errorf("register user '%s': %w", username, util.ErrDuplicateEntry)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, nil, fmt.Errorf("register user: failed to check existing user: %w", storeFailure("get user", err))
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("register user: %w", storeFailure("begin transaction", err))
	}
	defer tx.Rollback()

	user := domain.NewUser(username)
	if err := tx.Users().CreateUser(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("register user: %w", storeFailure("create user", err))
	}

	balance, err := tx.Balances().GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("register user: failed to open balance: %w", storeFailure("get balance", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("register user: %w", storeFailure("commit transaction", err))
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, balance, nil
}
