package ports

import (
	"context"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

// AuthResult is what a successful login or signup hands back to the client.
type AuthResult struct {
	Token string
	User  *domain.User
}

// TokenVerifier turns a bearer token back into a verified identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (domain.Identity, error)
}

// UserLoader re-fetches the account behind an identity.
type UserLoader interface {
	CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error)
}

// AuthService issues and verifies session tokens.
type AuthService interface {
	TokenVerifier
	UserLoader
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Signup(ctx context.Context, fullName, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, id domain.Identity) error
}
