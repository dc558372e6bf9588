package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseOrderStatus validates a status name. Unknown names are rejected with
// ErrInvalidTransition.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidTransition
}

// TransitionTable maps a status to the statuses it may move to.
type TransitionTable map[OrderStatus][]OrderStatus

// PermissiveTransitions lets an admin move an order between any two states.
var PermissiveTransitions = func() TransitionTable {
	t := make(TransitionTable, len(AllStatuses))
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			if from != to {
				t[from] = append(t[from], to)
			}
		}
	}
	return t
}()

// StrictTransitions treats Delivered and Cancelled as terminal.
var StrictTransitions = TransitionTable{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled, StatusProcessing},
}

// CanTransition reports whether from may move to next under the table.
func (t TransitionTable) CanTransition(from, next OrderStatus) bool {
	for _, allowed := range t[from] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesFor returns every status that may move to next. The result never
// contains next itself.
func (t TransitionTable) SourcesFor(next OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, from := range AllStatuses {
		if t.CanTransition(from, next) {
			out = append(out, from)
		}
	}
	return out
}

// LineItem is a product snapshot taken when the order is placed.
type LineItem struct {
	ProductID string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Image     string
	Quantity  int
}

// LineTotal is UnitPrice × Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// StatusChange records a single status transition on an order.
type StatusChange struct {
	Status    OrderStatus
	ChangedAt time.Time
	ChangedBy string
}

// Order is the aggregate root of the order pipeline.
type Order struct {
	ID            string
	UserID        string
	CustomerName  string
	Status        OrderStatus
	Items         []LineItem
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Taxes         decimal.Decimal
	Total         decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StatusHistory []StatusChange
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID string) bool { return o.UserID == userID }
