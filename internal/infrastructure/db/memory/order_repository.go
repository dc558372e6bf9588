package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository in memory. Status updates
// hold the write lock for the whole compare-and-set.
type OrderRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Order
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{byID: make(map[string]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.LineItem(nil), o.Items...)
	c.StatusHistory = append([]domain.StatusChange(nil), o.StatusHistory...)
	return &c
}

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[o.ID]; exists {
		return fmt.Errorf("insert order: duplicate id %s", o.ID)
	}
	r.byID[o.ID] = copyOrder(o)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

// List returns the orders matching the filter, newest first.
func (r *OrderRepository) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range r.byID {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from []domain.OrderStatus, change domain.StatusChange, at time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	for _, st := range from {
		if o.Status != st {
			continue
		}
		o.Status = change.Status
		o.UpdatedAt = at
		o.StatusHistory = append(o.StatusHistory, change)
		return copyOrder(o), nil
	}
	return nil, nil
}
