package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront-labs/storefront-api/internal/api/metrics"
	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// RequireAuthentication verifies the bearer token and attaches the identity
// it carries to the request context. Requests without a valid token never
// reach the handler.
func RequireAuthentication(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				return err
			}

			id, err := verifier.VerifyToken(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					metrics.TokenRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				}
				return err
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

var errMissingToken = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", domain.ErrTokenInvalid)
	}
	return strings.TrimSpace(parts[1]), nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, errMissingToken):
		return "missing"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenRevoked):
		return "revoked"
	default:
		return "invalid"
	}
}

// LoadUser re-fetches the account behind the verified identity so handlers
// see profile changes made after the token was issued. It must run after
// RequireAuthentication.
func LoadUser(loader ports.UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}

			user, err := loader.CurrentUser(c.Request().Context(), id)
			if err != nil {
				return err
			}

			SetUser(c, user)
			return next(c)
		}
	}
}
