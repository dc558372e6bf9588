package ports

import (
	"context"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

// UserRepository is the credential store. Lookups by email expect the
// normalized form. Missing records yield domain.ErrUserNotFound.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create fails with domain.ErrEmailTaken when the email is already stored.
	Create(ctx context.Context, user *domain.User) error
	// UpdateProfile replaces the mutable profile fields of the user with the given id.
	UpdateProfile(ctx context.Context, id string, fullName string, address domain.Address) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
}
