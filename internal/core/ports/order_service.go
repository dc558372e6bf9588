package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

// LineItemInput is a product snapshot as supplied by the client.
type LineItemInput struct {
	ProductID string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Image     string
	Quantity  int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	UserID         string
	Items          []LineItemInput
	IdempotencyKey string
}

// OrderService prices orders and drives their status lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Identity, input CreateOrderInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Identity, orderID, status string) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Identity, status string) ([]*domain.Order, error)
	ListMyOrders(ctx context.Context, actor domain.Identity) ([]*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Identity, orderID string) (*domain.Order, error)
}
