package ports

import (
	"context"
	"time"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
)

// ListOrdersFilter narrows an order listing. Zero values mean no filter.
type ListOrdersFilter struct {
	UserID string
	Status domain.OrderStatus
}

// OrderRepository is the order store.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, error)
	// UpdateStatus atomically sets the status of the order with the given id
	// and appends change to its history, but only while the current status is
	// one of from. It returns the updated order, or (nil, nil) when the order
	// exists but its status is not in from. A missing id yields
	// domain.ErrOrderNotFound.
	UpdateStatus(ctx context.Context, id string, from []domain.OrderStatus, change domain.StatusChange, at time.Time) (*domain.Order, error)
}
