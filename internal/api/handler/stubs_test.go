package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront-labs/storefront-api/internal/api/middleware"
	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

var errNotStubbed = errors.New("not stubbed")

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	signupFn  func(ctx context.Context, fullName, email, password string) (*ports.AuthResult, error)
	currentFn func(ctx context.Context, id domain.Identity) (*domain.User, error)
	logoutFn  func(ctx context.Context, id domain.Identity) error
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Signup(ctx context.Context, fullName, email, password string) (*ports.AuthResult, error) {
	return s.signupFn(ctx, fullName, email, password)
}

func (s *stubAuthService) VerifyToken(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, errNotStubbed
}

func (s *stubAuthService) CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.currentFn(ctx, id)
}

func (s *stubAuthService) Logout(ctx context.Context, id domain.Identity) error {
	return s.logoutFn(ctx, id)
}

type stubOrderService struct {
	createFn func(ctx context.Context, actor domain.Identity, in ports.CreateOrderInput) (*domain.Order, error)
	updateFn func(ctx context.Context, actor domain.Identity, orderID, status string) (*domain.Order, error)
	listFn   func(ctx context.Context, actor domain.Identity, status string) ([]*domain.Order, error)
	mineFn   func(ctx context.Context, actor domain.Identity) ([]*domain.Order, error)
	getFn    func(ctx context.Context, actor domain.Identity, orderID string) (*domain.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, actor domain.Identity, in ports.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, actor domain.Identity, orderID, status string) (*domain.Order, error) {
	return s.updateFn(ctx, actor, orderID, status)
}

func (s *stubOrderService) ListOrders(ctx context.Context, actor domain.Identity, status string) ([]*domain.Order, error) {
	return s.listFn(ctx, actor, status)
}

func (s *stubOrderService) ListMyOrders(ctx context.Context, actor domain.Identity) ([]*domain.Order, error) {
	return s.mineFn(ctx, actor)
}

func (s *stubOrderService) GetOrder(ctx context.Context, actor domain.Identity, orderID string) (*domain.Order, error) {
	return s.getFn(ctx, actor, orderID)
}

type stubUserService struct {
	createFn func(ctx context.Context, actor domain.Identity, in ports.CreateUserInput) (*domain.User, error)
	listFn   func(ctx context.Context, actor domain.Identity) ([]*domain.User, error)
	deleteFn func(ctx context.Context, actor domain.Identity, userID string) error
	updateFn func(ctx context.Context, actor domain.Identity, fullName string, address domain.Address) (*domain.User, error)
}

func (s *stubUserService) CreateUser(ctx context.Context, actor domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubUserService) ListUsers(ctx context.Context, actor domain.Identity) ([]*domain.User, error) {
	return s.listFn(ctx, actor)
}

func (s *stubUserService) DeleteUser(ctx context.Context, actor domain.Identity, userID string) error {
	return s.deleteFn(ctx, actor, userID)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, actor domain.Identity, fullName string, address domain.Address) (*domain.User, error) {
	return s.updateFn(ctx, actor, fullName, address)
}

var (
	customer = domain.Identity{SubjectID: "u-1", Email: "alice@example.com", Role: domain.RoleCustomer}
	admin    = domain.Identity{SubjectID: "u-9", Email: "root@example.com", Role: domain.RoleAdmin}
)

// newJSONContext builds an echo context for a JSON request, optionally
// carrying an authenticated identity.
func newJSONContext(method, target, body string, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		middleware.SetIdentity(c, *id)
	}
	return c, rec
}
