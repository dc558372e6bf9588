package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

type stubVerifier struct {
	tokens map[string]domain.Identity
	err    error
}

func (s stubVerifier) VerifyToken(_ context.Context, token string) (domain.Identity, error) {
	if s.err != nil {
		return domain.Identity{}, s.err
	}
	id, ok := s.tokens[token]
	if !ok {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	return id, nil
}

type stubLoader struct {
	users map[string]*domain.User
}

func (s stubLoader) CurrentUser(_ context.Context, id domain.Identity) (*domain.User, error) {
	u, ok := s.users[id.SubjectID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

var (
	customerID = domain.Identity{SubjectID: "u-1", Email: "c@example.com", Role: domain.RoleCustomer}
	adminID    = domain.Identity{SubjectID: "u-2", Email: "a@example.com", Role: domain.RoleAdmin}
	verifier   = stubVerifier{tokens: map[string]domain.Identity{"customer-token": customerID, "admin-token": adminID}}
)

func newContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireAuthentication_ValidToken(t *testing.T) {
	c, rec := newContext("Bearer customer-token")

	called := false
	handler := RequireAuthentication(verifier)(func(c echo.Context) error {
		called = true
		id, ok := IdentityFrom(c)
		if !ok || id.SubjectID != customerID.SubjectID || id.Role != domain.RoleCustomer {
			t.Fatalf("identity not attached: %+v", id)
		}
		if fromCtx, ok := IdentityFromContext(c.Request().Context()); !ok || fromCtx.SubjectID != id.SubjectID {
			t.Fatalf("identity missing from request context: %+v", fromCtx)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthentication_Rejections(t *testing.T) {
	cases := map[string]struct {
		header   string
		verifier stubVerifier
	}{
		"missing header": {"", verifier},
		"wrong scheme":   {"Token customer-token", verifier},
		"empty bearer":   {"Bearer   ", verifier},
		"unknown token":  {"Bearer forged", verifier},
		"expired token":  {"Bearer customer-token", stubVerifier{err: domain.ErrTokenExpired}},
		"revoked token":  {"Bearer customer-token", stubVerifier{err: domain.ErrTokenRevoked}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(tc.header)
			handler := RequireAuthentication(tc.verifier)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestRequireAuthentication_MalformedHeaderIsInvalidToken(t *testing.T) {
	c, _ := newContext("Basic dXNlcjpwYXNz")
	handler := RequireAuthentication(verifier)(func(c echo.Context) error { return nil })

	if err := handler(c); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRequireAuthentication_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("redis down")
	c, _ := newContext("Bearer customer-token")

	handler := RequireAuthentication(stubVerifier{err: storeErr})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, storeErr) || errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected the store error, got %v", err)
	}
}

func TestLoadUser(t *testing.T) {
	loader := stubLoader{users: map[string]*domain.User{customerID.SubjectID: {ID: customerID.SubjectID, FullName: "Fresh Name"}}}

	c, _ := newContext("Bearer customer-token")
	chain := RequireAuthentication(verifier)(LoadUser(loader)(func(c echo.Context) error {
		u, ok := UserFrom(c)
		if !ok || u.FullName != "Fresh Name" {
			t.Fatalf("user not attached: %+v", u)
		}
		return nil
	}))
	if err := chain(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	c, _ = newContext("Bearer admin-token")
	chain = RequireAuthentication(verifier)(LoadUser(loader)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}))
	if err := chain(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for a deleted account, got %v", err)
	}
}

func TestRequireAuthentication_MissingHeader(t *testing.T) {
	c, _ := newContext("")
	handler := RequireAuthentication(verifier)(func(c echo.Context) error { return nil })

	err := handler(c)
	if !errors.Is(err, errMissingToken) || !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatal("a missing header must not be reported as an invalid token")
	}
}

func TestRejectionReason(t *testing.T) {
	cases := map[string]error{
		"missing": errMissingToken,
		"expired": domain.ErrTokenExpired,
		"revoked": domain.ErrTokenRevoked,
		"invalid": domain.ErrTokenInvalid,
	}
	for want, err := range cases {
		if got := rejectionReason(err); got != want {
			t.Errorf("rejectionReason(%v) = %q, want %q", err, got, want)
		}
	}
}
