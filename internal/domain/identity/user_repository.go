package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists users
type UserRepository interface {
	// Save inserts or updates a user
	Save(ctx context.Context, user *User) error

	// FindByID retrieves a user by id, shared.ErrNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail retrieves a user by normalized email, shared.ErrNotFound if absent
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether a user with the email already exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
