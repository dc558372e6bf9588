package ports

import (
	"context"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

// CreateUserInput is an admin-initiated account creation.
type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

// UserService covers account administration and self-service profile edits.
type UserService interface {
	CreateUser(ctx context.Context, actor domain.Identity, input CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context, actor domain.Identity) ([]*domain.User, error)
	DeleteUser(ctx context.Context, actor domain.Identity, userID string) error
	UpdateProfile(ctx context.Context, actor domain.Identity, fullName string, address domain.Address) (*domain.User, error)
}
