package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// accountRegistrar creates validated, hashed accounts. AuthService is the
// only implementation.
type accountRegistrar interface {
	Register(ctx context.Context, fullName, email, password string, role domain.Role) (*domain.User, error)
}

// UserService covers account administration and self-service profile edits.
type UserService struct {
	users     ports.UserRepository
	registrar accountRegistrar
	log       zerolog.Logger
}

func NewUserService(users ports.UserRepository, registrar accountRegistrar, log zerolog.Logger) *UserService {
	return &UserService{users: users, registrar: registrar, log: log}
}

// CreateUser lets an admin create an account with any role. An empty role
// means customer.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Identity, input ports.CreateUserInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can create users", domain.ErrForbidden)
	}

	role := domain.RoleCustomer
	if input.Role != "" {
		parsed, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, domain.WithField(err, "role")
		}
		role = parsed
	}
	return s.registrar.Register(ctx, input.FullName, input.Email, input.Password, role)
}

func (s *UserService) ListUsers(ctx context.Context, actor domain.Identity) ([]*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can list users", domain.ErrForbidden)
	}
	return s.users.List(ctx)
}

// DeleteUser removes an account. Orders placed by it are kept.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Identity, userID string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete users", domain.ErrForbidden)
	}
	if actor.Owns(userID) {
		return fmt.Errorf("%w: admins cannot delete their own account", domain.ErrForbidden)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("by", actor.SubjectID).Msg("account deleted")
	return nil
}

// UpdateProfile changes the actor's display name and shipping address.
// Email, role and password are not editable here.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Identity, fullName string, address domain.Address) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, domain.WithField(domain.ErrMissingField, "fullName")
	}
	address = domain.Address{
		Street:     strings.TrimSpace(address.Street),
		City:       strings.TrimSpace(address.City),
		State:      strings.TrimSpace(address.State),
		PostalCode: strings.TrimSpace(address.PostalCode),
	}
	return s.users.UpdateProfile(ctx, actor.SubjectID, fullName, address)
}
