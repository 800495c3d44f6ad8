// internal/repository/user_repo.go
package repository

import (
	"context"

	"ledger-core/internal/domain"
)

// IdentityResolver answers whether an owner id belongs to a known user.
type IdentityResolver interface {
	// ResolveUser returns util.ErrUserNotFound for unknown ids.
	ResolveUser(ctx context.Context, id int64) (*domain.User, error)
}

// UserWriter creates users.
type UserWriter interface {
	// CreateUser stores the user and sets its ID. A taken username yields util.ErrDuplicateEntry.
	CreateUser(ctx context.Context, user *domain.User) error
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	IdentityResolver
	UserWriter
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
