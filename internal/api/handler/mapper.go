package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateOrderInput(req createOrderRequest, idempotencyKey string) ports.CreateOrderInput {
	items := make([]ports.LineItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ports.LineItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Category:  it.Category,
			UnitPrice: it.UnitPrice,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}
	return ports.CreateOrderInput{
		UserID:         req.UserID,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}
}

func toAddress(a addressPayload) domain.Address {
	return domain.Address{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

// --- Service result → HTTP response ---

// money renders an amount as a JSON number with exactly two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		Role:        string(u.Role),
		MemberSince: u.MemberSince.UTC(),
		ShippingAddress: addressPayload{
			Street:     u.ShippingAddress.Street,
			City:       u.ShippingAddress.City,
			State:      u.ShippingAddress.State,
			PostalCode: u.ShippingAddress.PostalCode,
		},
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := make([]lineItemResponse, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, lineItemResponse{
			ProductID: li.ProductID,
			Name:      li.Name,
			Category:  li.Category,
			UnitPrice: money(li.UnitPrice),
			Image:     li.Image,
			Quantity:  li.Quantity,
			LineTotal: money(li.LineTotal()),
		})
	}

	history := make([]statusChangeResponse, 0, len(o.StatusHistory))
	for _, h := range o.StatusHistory {
		history = append(history, statusChangeResponse{
			Status:    string(h.Status),
			ChangedAt: h.ChangedAt.UTC(),
			ChangedBy: h.ChangedBy,
		})
	}

	return orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		Status:        string(o.Status),
		Items:         items,
		Subtotal:      money(o.Subtotal),
		Shipping:      money(o.Shipping),
		Taxes:         money(o.Taxes),
		Total:         money(o.Total),
		CreatedAt:     o.CreatedAt.UTC(),
		UpdatedAt:     o.UpdatedAt.UTC(),
		StatusHistory: history,
	}
}

func toOrderResponses(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}
