package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// OrderOptions selects the order policies that are configurable at startup.
type OrderOptions struct {
	// StrictTransitions makes Delivered and Cancelled terminal.
	StrictTransitions bool
	// EnforceOwnership limits GetOrder to the owner and admins.
	EnforceOwnership bool
}

// OrderService prices orders and drives their status lifecycle.
type OrderService struct {
	orders           ports.OrderRepository
	users            ports.UserRepository
	idempotency      ports.IdempotencyStore
	transitions      domain.TransitionTable
	enforceOwnership bool
	now              func() time.Time
	log              zerolog.Logger
}

// NewOrderService builds an OrderService. idempotency may be nil, in which
// case Idempotency-Key values are ignored.
func NewOrderService(orders ports.OrderRepository, users ports.UserRepository, idempotency ports.IdempotencyStore, opts OrderOptions, log zerolog.Logger) *OrderService {
	transitions := domain.PermissiveTransitions
	if opts.StrictTransitions {
		transitions = domain.StrictTransitions
	}
	return &OrderService{
		orders:           orders,
		users:            users,
		idempotency:      idempotency,
		transitions:      transitions,
		enforceOwnership: opts.EnforceOwnership,
		now:              time.Now,
		log:              log,
	}
}

// CreateOrder places an order for the acting user. Line items are stored as
// snapshots so later catalog changes never alter a placed order.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Identity, input ports.CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, domain.WithField(domain.ErrEmptyOrder, "items")
	}

	ownerID := input.UserID
	if ownerID == "" {
		ownerID = actor.SubjectID
	}
	if !actor.Owns(ownerID) {
		s.log.Warn().Str("actor", actor.SubjectID).Str("owner", ownerID).Msg("order creation for another user rejected")
		return nil, fmt.Errorf("%w: orders can only be placed for yourself", domain.ErrForbidden)
	}

	items := make([]domain.LineItem, 0, len(input.Items))
	for i, in := range input.Items {
		item, err := toLineItem(in)
		if err != nil {
			return nil, domain.WithField(err, fmt.Sprintf("items[%d]", i))
		}
		items = append(items, item)
	}

	orderID := generateOrderID()
	existing, reserved, err := s.reserveKey(ctx, ownerID, input.IdempotencyKey, orderID)
	if err != nil || existing != nil {
		return existing, err
	}
	stored := false
	if reserved {
		defer func() {
			if !stored {
				s.releaseKey(ownerID, input.IdempotencyKey, orderID)
			}
		}()
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	now := s.now().UTC()
	totals := domain.PriceItems(items)
	order := &domain.Order{
		ID:           orderID,
		UserID:       owner.ID,
		CustomerName: owner.FullName,
		Status:       domain.StatusProcessing,
		Items:        items,
		Subtotal:     totals.Subtotal,
		Shipping:     totals.Shipping,
		Taxes:        totals.Taxes,
		Total:        totals.Total,
		CreatedAt:    now,
		UpdatedAt:    now,
		StatusHistory: []domain.StatusChange{
			{Status: domain.StatusProcessing, ChangedAt: now, ChangedBy: actor.SubjectID},
		},
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	stored = true

	s.log.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created")
	return order, nil
}

// reserveKey binds the idempotency key to orderID before anything is
// written. When an earlier request holds the key it returns that request's
// order, or ErrRequestInFlight while that order is not stored yet.
func (s *OrderService) reserveKey(ctx context.Context, ownerID, key, orderID string) (*domain.Order, bool, error) {
	if s.idempotency == nil || key == "" {
		return nil, false, nil
	}
	existingID, reserved, err := s.idempotency.Reserve(ctx, ownerID, key, orderID)
	if err != nil {
		return nil, false, fmt.Errorf("create order: idempotency reserve: %w", err)
	}
	if reserved {
		return nil, true, nil
	}

	order, err := s.orders.FindByID(ctx, existingID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, false, domain.WithField(domain.ErrRequestInFlight, "Idempotency-Key")
		}
		return nil, false, fmt.Errorf("create order: %w", err)
	}
	s.log.Debug().Str("order_id", existingID).Str("key", key).Msg("idempotent replay")
	return order, false, nil
}

// releaseKey frees a reserved key after a failed attempt so the client can
// retry with it. It runs detached from the request context, which may
// already be cancelled.
func (s *OrderService) releaseKey(ownerID, key, orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.idempotency.Release(ctx, ownerID, key, orderID); err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to release idempotency key")
	}
}

func toLineItem(in ports.LineItemInput) (domain.LineItem, error) {
	switch {
	case strings.TrimSpace(in.ProductID) == "":
		return domain.LineItem{}, fmt.Errorf("%w: productId is required", domain.ErrInvalidLineItem)
	case strings.TrimSpace(in.Name) == "":
		return domain.LineItem{}, fmt.Errorf("%w: name is required", domain.ErrInvalidLineItem)
	case in.Quantity < 1:
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidLineItem)
	case in.UnitPrice.IsNegative():
		return domain.LineItem{}, fmt.Errorf("%w: unitPrice must not be negative", domain.ErrInvalidLineItem)
	case !in.UnitPrice.Equal(in.UnitPrice.Truncate(2)):
		return domain.LineItem{}, fmt.Errorf("%w: unitPrice must not have more than 2 decimal places", domain.ErrInvalidLineItem)
	}
	return domain.LineItem{
		ProductID: in.ProductID,
		Name:      in.Name,
		Category:  in.Category,
		UnitPrice: in.UnitPrice,
		Image:     in.Image,
		Quantity:  in.Quantity,
	}, nil
}

// UpdateStatus moves an order to a new status in a single conditional write.
// Setting the current status again returns the order unchanged.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Identity, orderID, status string) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can change order status", domain.ErrForbidden)
	}

	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		// A missing order is reported before a bad status name.
		if _, findErr := s.orders.FindByID(ctx, orderID); findErr != nil {
			return nil, findErr
		}
		return nil, domain.WithField(fmt.Errorf("%w: unknown status %q", err, status), "status")
	}

	change := domain.StatusChange{Status: next, ChangedAt: s.now().UTC(), ChangedBy: actor.SubjectID}
	updated, err := s.orders.UpdateStatus(ctx, orderID, s.transitions.SourcesFor(next), change, change.ChangedAt)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		s.log.Info().Str("order_id", orderID).Str("status", string(next)).Str("by", actor.SubjectID).Msg("order status updated")
		return updated, nil
	}

	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	return nil, domain.WithField(
		fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrInvalidTransition, current.Status, next),
		"status",
	)
}

// ListOrders returns every order, newest first, optionally narrowed to one
// status.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Identity, status string) ([]*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can list all orders", domain.ErrForbidden)
	}

	filter := ports.ListOrdersFilter{}
	if status != "" {
		st, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, domain.WithField(fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status), "status")
		}
		filter.Status = st
	}
	return s.orders.List(ctx, filter)
}

// ListMyOrders returns the orders placed by the actor, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, actor domain.Identity) ([]*domain.Order, error) {
	return s.orders.List(ctx, ports.ListOrdersFilter{UserID: actor.SubjectID})
}

func (s *OrderService) GetOrder(ctx context.Context, actor domain.Identity, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.enforceOwnership && !actor.IsAdmin() && !actor.Owns(order.UserID) {
		return nil, fmt.Errorf("%w: order belongs to another user", domain.ErrForbidden)
	}
	return order, nil
}

// generateOrderID returns a random order id in the format ORD-XXXXXXXX.
func generateOrderID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("ORD-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("ORD-%08X", b)
}
