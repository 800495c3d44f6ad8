// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger-core/internal/domain"
	"ledger-core/internal/repository"
	"ledger-core/internal/util"
)

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct {
	q repository.DBExecutor
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(q repository.DBExecutor) *UserRepository {
	return &UserRepository{q: q}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (username, created_at, updated_at)
              VALUES ($1, $2, $3) RETURNING id`
	err := r.q.QueryRowxContext(ctx, query, user.Username, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user '%s': %w", user.Username, util.ErrDuplicateEntry)
		}
		return storeError("create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, username, created_at, updated_at FROM users WHERE id = $1`
	if err := r.q.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, storeError(fmt.Sprintf("get user by ID %d", id), err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, username, created_at, updated_at FROM users WHERE username = $1`
	if err := r.q.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, storeError(fmt.Sprintf("get user by username '%s'", username), err)
	}
	return &user, nil
}

// ResolveUser implements repository.IdentityResolver.
func (r *UserRepository) ResolveUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := r.GetUserByID(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}
