package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

const (
	identityKey = "identity"
	userKey     = "user"
)

// IdentityFrom returns the identity attached by RequireAuthentication.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

// UserFrom returns the account attached by LoadUser.
func UserFrom(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userKey).(*domain.User)
	return u, ok && u != nil
}

type identityCtxKey struct{}

// SetIdentity attaches a verified identity to the echo context and to the
// request's context.Context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), identityCtxKey{}, id)))
}

// IdentityFromContext returns the identity attached by SetIdentity to a
// request context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	return id, ok
}

// SetUser attaches the freshly loaded account to the request context.
func SetUser(c echo.Context, u *domain.User) {
	c.Set(userKey, u)
}
